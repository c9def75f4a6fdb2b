package config_test

import (
	"fmt"

	"github.com/wonny/highscan/pkg/config"
)

// Example_setDataDir shows that a --data-dir override moves the default error log with it
func Example_setDataDir() {
	cfg := &config.Config{
		DataDir:      "data",
		ErrorLogPath: "data/error_log.txt",
	}
	cfg.SetDataDir("/srv/highscan")
	fmt.Println(cfg.DataDir)
	fmt.Println(cfg.ErrorLogPath)

	custom := &config.Config{
		DataDir:      "data",
		ErrorLogPath: "/var/log/highscan_errors.txt",
	}
	custom.SetDataDir("/srv/highscan")
	fmt.Println(custom.ErrorLogPath)

	// Output:
	// /srv/highscan
	// /srv/highscan/error_log.txt
	// /var/log/highscan_errors.txt
}
