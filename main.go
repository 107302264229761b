package main

import "github.com/nijaru/yt-blog/cmd"

func main() {
	cmd.Execute()
}
