package logger

import "os"

func defaultExit() {
	os.Exit(1)
}
