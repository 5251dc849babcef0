package config

import "github.com/spf13/viper"

// applyDefaults seeds viper with the built-in defaults, the lowest tier of
// the precedence order documented on Config.
func applyDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "INFO")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stdout")

	v.SetDefault("timeouts.default", "1s")
	v.SetDefault("timeouts.restart", "20s")
	v.SetDefault("timeouts.update", "720s")
	v.SetDefault("timeouts.restart_ack_can", "1s")
	v.SetDefault("timeouts.restart_ack_hid", "5s")
	v.SetDefault("timeouts.update_confirmation", "1s")
	v.SetDefault("timeouts.update_upload_eof", "60s")
	v.SetDefault("timeouts.update_component", "60s")
	v.SetDefault("timeouts.scan_for_devices", "2s")
	v.SetDefault("timeouts.send_to_can", "10s")
	v.SetDefault("timeouts.hotplug_poll", "500ms")

	v.SetDefault("can.bus_names", []string{"can0"})
	v.SetDefault("can.universal", false)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.port", 9090)
}
