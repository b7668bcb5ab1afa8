// Package quota converts project storage quotas between the GiB values users
// configure and the byte counts the Harbor API stores.
package quota

import units "github.com/docker/go-units"

// Unlimited is the sentinel Harbor uses for a project without a storage cap.
const Unlimited int64 = -1

// ToBaseUnits converts gigabytes to bytes. Unlimited maps to itself; any other
// value, negative ones included, is multiplied without clamping.
func ToBaseUnits(gigabytes int64) int64 {
	if gigabytes == Unlimited {
		return Unlimited
	}
	return gigabytes * units.GiB
}

// FromBaseUnits is the inverse of ToBaseUnits, truncating partial gigabytes.
func FromBaseUnits(bytes int64) int64 {
	if bytes == Unlimited {
		return Unlimited
	}
	return bytes / units.GiB
}

func Humanize(bytes int64) string {
	if bytes == Unlimited {
		return "unlimited"
	}
	return units.BytesSize(float64(bytes))
}
