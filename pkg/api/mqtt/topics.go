package mqtt

import "path"

const DefaultTopicPrefix = "devday2021"

// Topics holds the two topics shared by a feeder and its monitor
type Topics struct {
	Command string
	Data    string
}

// NewTopics templates the cmd and data topics for a device.
func NewTopics(prefix, deviceID string) Topics {
	return Topics{
		Command: path.Join(prefix, "cmd", deviceID),
		Data:    path.Join(prefix, "data", deviceID),
	}
}
