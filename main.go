package main

import "github.com/theirongolddev/copilotpulse/cmd"

func main() {
	cmd.Execute()
}
