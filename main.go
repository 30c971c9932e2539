package main

import "coursechat/cmd"

func main() {
	cmd.Execute()
}
