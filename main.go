package main

import "github.com/StanleyRoberts/WatchingRaccoonsBot/cmd"

func main() {
	cmd.Execute()
}
