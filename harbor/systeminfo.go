package harbor

import (
	"context"
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/crmarques/harborsync/faults"
	"github.com/crmarques/harborsync/resource"
	"github.com/crmarques/harborsync/transport"
)

// MinimumHarborVersion is the oldest release serving the v2.0 API with
// project metadata, quotas and registries as used here.
const MinimumHarborVersion = "2.0.0"

var minimumVersionConstraint = semver.MustParse(MinimumHarborVersion)

// SystemInfo is the subset of GET /systeminfo used to confirm that the
// configured API URL points at a Harbor instance.
type SystemInfo struct {
	HarborVersion string `json:"harbor_version" yaml:"harbor_version"`
	AuthMode      string `json:"auth_mode,omitempty" yaml:"auth_mode,omitempty"`
}

func FetchSystemInfo(ctx context.Context, client transport.Client) (SystemInfo, error) {
	normalized, typedErr := transport.InterpretResponse(client.Do(ctx, transport.Get("/systeminfo", nil)))
	if typedErr != nil {
		return SystemInfo{}, typedErr
	}

	obj, ok := resource.AsObject(normalized.Data)
	if !ok {
		return SystemInfo{}, faults.NewTypedError(faults.DecodeError, "systeminfo response is not an object", nil)
	}
	info := SystemInfo{}
	info.HarborVersion, _ = obj["harbor_version"].(string)
	info.AuthMode, _ = obj["auth_mode"].(string)
	if info.HarborVersion == "" {
		return SystemInfo{}, faults.NewTypedError(faults.DecodeError, "systeminfo response has no harbor_version", nil)
	}
	if err := checkVersion(info.HarborVersion); err != nil {
		return SystemInfo{}, err
	}
	return info, nil
}

// checkVersion accepts build suffixes such as "v2.11.0-abc123" by comparing
// only the release numbers.
func checkVersion(raw string) error {
	version, err := semver.NewVersion(raw)
	if err != nil {
		return faults.NewTypedError(faults.DecodeError, fmt.Sprintf("harbor version %q is not a semantic version", raw), err)
	}
	release, err := version.SetPrerelease("")
	if err != nil {
		return faults.NewTypedError(faults.DecodeError, fmt.Sprintf("harbor version %q is not a semantic version", raw), err)
	}
	if release.LessThan(minimumVersionConstraint) {
		return faults.NewTypedError(
			faults.ValidationError,
			fmt.Sprintf("harbor %s is not supported: %s or newer is required", raw, MinimumHarborVersion),
			nil,
		)
	}
	return nil
}
