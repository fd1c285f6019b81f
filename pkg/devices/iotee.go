package devices

import (
	"gitlab.mi.hdm-stuttgart.de/iotee/go-iotee"
)

// IoTee is the subset of the serial IoTee board used by the feeder.
// *iotee.IoTee satisfies it.
type IoTee interface {
	Open() error
	Close()
	Transmit(msg *iotee.Message) error
}

// OpenIoTee opens the IoTee board attached to the given serial device.
func OpenIoTee(dev string, baud int) (*iotee.IoTee, error) {
	it := iotee.NewIoTee(dev, baud)
	if err := it.Open(); err != nil {
		return nil, err
	}

	return it, nil
}

// IoTeePump signals the pump state on the RGB LED of an IoTee board, which
// switches the relay wired to it.
type IoTeePump struct {
	board IoTee
}

func NewIoTeePump(board IoTee) *IoTeePump {
	return &IoTeePump{board}
}

func (p *IoTeePump) SetOn(on bool) error {
	req := iotee.NewMessage(iotee.MessageTypeRGBLED, 4)

	intensity := byte(0)
	if on {
		intensity = 255
	}

	req.Data = []byte{intensity, 0, 255, 0}

	return p.board.Transmit(&req)
}
