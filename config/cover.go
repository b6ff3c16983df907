package config

import (
	"fmt"
	"time"
)

const DefaultDeviceClass = "shade"

// AddressLength is the number of hex digits in an RTS remote address.
const AddressLength = 6

type CoverConfig struct {
	Name string `json:"-"`

	Address string
	// UpTime and DownTime are the full travel times in seconds, both are needed to estimate position.
	UpTime   *float64
	DownTime *float64

	Reversed           bool
	DeviceClass        string
	LegacyStopEstimate bool
}

func (c CoverConfig) Validate() error {
	if len(c.Address) != AddressLength {
		return fmt.Errorf("cover '%s' address '%s' must be %d hexadecimal digits", c.Name, c.Address, AddressLength)
	}

	for _, r := range c.Address {
		if !((r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')) {
			return fmt.Errorf("cover '%s' address '%s' is not hexadecimal", c.Name, c.Address)
		}
	}

	if c.UpTime != nil && *c.UpTime <= 0 {
		return fmt.Errorf("cover '%s' up time must be positive", c.Name)
	}

	if c.DownTime != nil && *c.DownTime <= 0 {
		return fmt.Errorf("cover '%s' down time must be positive", c.Name)
	}

	return nil
}

// Travel converts the configured travel times, an absent time is zero.
func (c CoverConfig) Travel() (time.Duration, time.Duration) {
	return seconds(c.UpTime), seconds(c.DownTime)
}

func (c CoverConfig) Class() string {
	if len(c.DeviceClass) == 0 {
		return DefaultDeviceClass
	}

	return c.DeviceClass
}

func seconds(s *float64) time.Duration {
	if s == nil {
		return 0
	}

	return time.Duration(*s * float64(time.Second))
}
