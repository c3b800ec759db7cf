package config

import "os"

func IsDebug() bool {
	return os.Getenv("IM_DEBUG") == "1"
}
