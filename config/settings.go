package config

var (
	AppName    = "az-citas"
	AppVersion = "v1.0.0"
)
