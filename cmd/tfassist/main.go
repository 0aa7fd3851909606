package main

import "github.com/tfmusic/workflow-assistant/cmd/tfassist/cmd"

func main() {
	cmd.Execute()
}
