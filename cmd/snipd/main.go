// Command snipd is a text expansion daemon. It watches system-wide input,
// shows its state in the notification area and renders match templates.
//
// Usage:
//
//	snipd run                 start the daemon
//	snipd render <trigger>    render one match and print the result
//	snipd validate [dir]      check the match files
//	snipd history             show recent expansions
//	snipd config path|init|show
//	snipd version
package main

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

func main() {
	Execute()
}
