package harbor

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/crmarques/harborsync/reconciler"
	"github.com/crmarques/harborsync/resource"
	"github.com/crmarques/harborsync/transport"
)

const KindRegistry = "registry"

// RegistryTypes lists the registry adapters Harbor accepts.
var RegistryTypes = []string{
	"ali-acr",
	"aws-ecr",
	"azure-acr",
	"docker-hub",
	"docker-registry",
	"gitlab",
	"google-gcr",
	"harbor",
	"helm-hub",
	"huawei-SWR",
	"jfrog-artifactory",
	"quay",
	"tencent-tcr",
}

// Harbor never returns the secret in clear text.
var registryIgnoredFields = resource.MustFieldPaths("/credential/access_secret", "/update_time")

type RegistryOptions struct {
	Name         string
	Type         *string
	EndpointURL  *string
	AccessKey    *string
	AccessSecret *string
	Insecure     *bool
}

func (o RegistryOptions) Validate(target reconciler.State) error {
	if strings.TrimSpace(o.Name) == "" {
		return validationError("registry name is required")
	}
	if o.Type != nil && !slices.Contains(RegistryTypes, *o.Type) {
		return validationError(fmt.Sprintf(
			"registry %q type %q is not supported: use one of %s",
			o.Name, *o.Type, strings.Join(RegistryTypes, ", "),
		))
	}
	if target == reconciler.StatePresent && (o.Type == nil || o.EndpointURL == nil) {
		return validationError(fmt.Sprintf("registry %q requires type and endpoint url when present", o.Name))
	}
	return nil
}

type Registry struct {
	options RegistryOptions
}

var _ reconciler.Reconcilable = (*Registry)(nil)

func NewRegistry(options RegistryOptions, target reconciler.State) (*Registry, error) {
	if err := options.Validate(target); err != nil {
		return nil, err
	}
	return &Registry{options: options}, nil
}

func (r *Registry) Kind() string { return KindRegistry }
func (r *Registry) Name() string { return r.options.Name }

func (r *Registry) Fetch(ctx context.Context, client transport.Client) (resource.Object, error) {
	return FindRegistry(ctx, client, r.options.Name)
}

// FindRegistry looks a registry up by its exact name.
func FindRegistry(ctx context.Context, client transport.Client, name string) (resource.Object, error) {
	items, err := listAll(ctx, client, "/registries", url.Values{"q": {"name=" + name}})
	if err != nil {
		return nil, err
	}
	return findByName(ctx, items, name)
}

func (r *Registry) BuildDesiredPayload() (resource.Object, error) {
	desired := resource.Object{"name": r.options.Name}
	if r.options.Type != nil {
		desired["type"] = *r.options.Type
	}
	if r.options.EndpointURL != nil {
		desired["url"] = *r.options.EndpointURL
	}
	if r.options.Insecure != nil {
		desired["insecure"] = *r.options.Insecure
	}

	credential := map[string]any{}
	if r.options.AccessKey != nil {
		credential["access_key"] = *r.options.AccessKey
	}
	if r.options.AccessSecret != nil {
		credential["access_secret"] = *r.options.AccessSecret
	}
	if len(credential) > 0 {
		credential["type"] = "basic"
		desired["credential"] = credential
	}
	return desired, nil
}

func (r *Registry) IgnoredFieldPaths() []resource.FieldPath {
	return registryIgnoredFields
}

func (r *Registry) CreateRequest(_ context.Context, _ transport.Client, desired resource.Object) (transport.Request, error) {
	return transport.Request{
		Method: http.MethodPost,
		Path:   "/registries",
		Body:   desired,
		Expect: []int{http.StatusCreated},
	}, nil
}

func (r *Registry) UpdateRequest(existing resource.Object, desired resource.Object) (transport.Request, error) {
	registryID, err := objectID(existing, "id")
	if err != nil {
		return transport.Request{}, err
	}
	return transport.Request{
		Method: http.MethodPut,
		Path:   registryPath(registryID),
		Body:   desired,
		Expect: []int{http.StatusOK},
	}, nil
}

func (r *Registry) DeleteRequest(existing resource.Object) (transport.Request, error) {
	registryID, err := objectID(existing, "id")
	if err != nil {
		return transport.Request{}, err
	}
	return transport.Request{
		Method: http.MethodDelete,
		Path:   registryPath(registryID),
		Expect: []int{http.StatusOK},
	}, nil
}

func registryPath(registryID int64) string {
	return "/registries/" + strconv.FormatInt(registryID, 10)
}
