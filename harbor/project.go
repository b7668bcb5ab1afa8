package harbor

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/crmarques/harborsync/faults"
	"github.com/crmarques/harborsync/quota"
	"github.com/crmarques/harborsync/reconciler"
	"github.com/crmarques/harborsync/resource"
	"github.com/crmarques/harborsync/transport"
)

const KindProject = "project"

var projectIgnoredFields = resource.MustFieldPaths("/update_time")

// ProjectOptions describes a desired project. Nil options carry no
// preference and are left as Harbor has them.
type ProjectOptions struct {
	Name         string
	Public       *bool
	AutoScan     *bool
	ContentTrust *bool
	// QuotaGB is the storage limit in GiB; -1 means unlimited.
	QuotaGB *int64
	// CacheRegistry makes the project a proxy cache of the named registry.
	// It only applies when the project is created.
	CacheRegistry *string
}

func (o ProjectOptions) Validate() error {
	if strings.TrimSpace(o.Name) == "" {
		return validationError("project name is required")
	}
	if o.QuotaGB != nil && *o.QuotaGB < quota.Unlimited {
		return validationError(fmt.Sprintf("project %q quota must be -1 (unlimited) or a non-negative number of GiB", o.Name))
	}
	if o.CacheRegistry != nil && strings.TrimSpace(*o.CacheRegistry) == "" {
		return validationError(fmt.Sprintf("project %q cache registry must not be empty", o.Name))
	}
	return nil
}

type Project struct {
	options ProjectOptions
}

var _ reconciler.Reconcilable = (*Project)(nil)

func NewProject(options ProjectOptions) (*Project, error) {
	if err := options.Validate(); err != nil {
		return nil, err
	}
	return &Project{options: options}, nil
}

func (p *Project) Kind() string { return KindProject }
func (p *Project) Name() string { return p.options.Name }

func (p *Project) Fetch(ctx context.Context, client transport.Client) (resource.Object, error) {
	return FindProject(ctx, client, p.options.Name)
}

// FindProject looks a project up by its exact name.
func FindProject(ctx context.Context, client transport.Client, name string) (resource.Object, error) {
	items, err := listAll(ctx, client, "/projects", url.Values{"name": {name}})
	if err != nil {
		return nil, err
	}
	return findByName(ctx, items, name)
}

// BuildDesiredPayload renders the metadata options with Harbor's string
// booleans. With no options set the payload is empty and an existing
// project is never updated.
func (p *Project) BuildDesiredPayload() (resource.Object, error) {
	metadata := p.metadata()
	if len(metadata) == 0 {
		return resource.Object{}, nil
	}
	return resource.Object{"metadata": metadata}, nil
}

func (p *Project) metadata() map[string]any {
	metadata := map[string]any{}
	setStringBool(metadata, "public", p.options.Public)
	setStringBool(metadata, "auto_scan", p.options.AutoScan)
	setStringBool(metadata, "enable_content_trust", p.options.ContentTrust)
	return metadata
}

func (p *Project) IgnoredFieldPaths() []resource.FieldPath {
	return projectIgnoredFields
}

func (p *Project) CreateRequest(ctx context.Context, client transport.Client, _ resource.Object) (transport.Request, error) {
	body := map[string]any{
		"project_name": p.options.Name,
		"metadata":     p.metadata(),
	}
	if p.options.QuotaGB != nil {
		body["storage_limit"] = quota.ToBaseUnits(*p.options.QuotaGB)
	}
	if p.options.CacheRegistry != nil {
		registry, err := FindRegistry(ctx, client, *p.options.CacheRegistry)
		if err != nil {
			return transport.Request{}, err
		}
		if registry == nil {
			return transport.Request{}, validationError(fmt.Sprintf("registry %q not found", *p.options.CacheRegistry))
		}
		registryID, err := objectID(registry, "id")
		if err != nil {
			return transport.Request{}, err
		}
		body["registry_id"] = registryID
	}

	return transport.Request{
		Method: http.MethodPost,
		Path:   "/projects",
		Body:   body,
		Expect: []int{http.StatusCreated},
	}, nil
}

func (p *Project) UpdateRequest(existing resource.Object, desired resource.Object) (transport.Request, error) {
	projectID, err := objectID(existing, "project_id")
	if err != nil {
		return transport.Request{}, err
	}
	return transport.Request{
		Method: http.MethodPut,
		Path:   projectPath(projectID),
		Body:   desired,
		Expect: []int{http.StatusOK},
	}, nil
}

func (p *Project) DeleteRequest(existing resource.Object) (transport.Request, error) {
	projectID, err := objectID(existing, "project_id")
	if err != nil {
		return transport.Request{}, err
	}
	return transport.Request{
		Method: http.MethodDelete,
		Path:   projectPath(projectID),
		Expect: []int{http.StatusOK},
	}, nil
}

func projectPath(projectID int64) string {
	return "/projects/" + strconv.FormatInt(projectID, 10)
}

func setStringBool(target map[string]any, key string, value *bool) {
	if value == nil {
		return
	}
	target[key] = strconv.FormatBool(*value)
}

func validationError(message string) error {
	return faults.NewTypedError(faults.ValidationError, message, nil)
}
