package config

import (
	"fmt"
	"os"
)

func Template() string {
	return sessionTemplate
}

func WriteTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(sessionTemplate), 0o600)
}

const sessionTemplate = `# framectl sessions
admin_addr = "127.0.0.1:7070"
max_buffered = 1048576

[[session]]
name = "imu"
bus = "serial"
port = "/dev/ttyUSB0"
baud_rate = 115200
frame_detection = "start_end_delimiter"
start_delimiter = "/*"
end_delimiter = "*/"
decoder = "plain_text"
operation = "quick_plot"
output = "stdout"
reconnect = true

[[session]]
name = "telemetry"
bus = "network"
protocol = "udp"
listen_address = "0.0.0.0:7777"
frame_detection = "end_delimiter"
end_delimiter_hex = "0d0a"
decoder = "base64"
operation = "json"
`
