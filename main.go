package main

import (
	"github.com/sirupsen/logrus"

	"github.com/nicholas-fedor/tagwatch/cmd"
)

// init sets the default log level until flags are parsed.
func init() {
	logrus.SetLevel(logrus.InfoLevel)
}

func main() {
	cmd.Execute()
}
