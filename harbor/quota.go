package harbor

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/crmarques/harborsync/quota"
	"github.com/crmarques/harborsync/reconciler"
	"github.com/crmarques/harborsync/resource"
	"github.com/crmarques/harborsync/transport"
)

const KindQuota = "quota"

var quotaIgnoredFields = resource.MustFieldPaths("/update_time", "/used")

// Quota is the storage quota Harbor keeps for every project. It exists as
// long as its project does, so it can only be updated.
type Quota struct {
	ProjectName string
	ReferenceID int64
	StorageGB   int64
}

var _ reconciler.Reconcilable = (*Quota)(nil)

func (q *Quota) Kind() string { return KindQuota }

func (q *Quota) Name() string {
	if q.ProjectName != "" {
		return q.ProjectName
	}
	return strconv.FormatInt(q.ReferenceID, 10)
}

func (q *Quota) Fetch(ctx context.Context, client transport.Client) (resource.Object, error) {
	query := url.Values{
		"reference":    {"project"},
		"reference_id": {strconv.FormatInt(q.ReferenceID, 10)},
	}
	normalized, typedErr := transport.InterpretResponse(client.Do(ctx, transport.Get("/quotas", query)))
	if typedErr != nil {
		return nil, typedErr
	}

	entries, _ := normalized.Data.([]any)
	if len(entries) == 0 {
		return nil, nil
	}
	obj, _ := resource.AsObject(entries[0])
	return obj, nil
}

func (q *Quota) BuildDesiredPayload() (resource.Object, error) {
	return resource.Object{
		"hard": map[string]any{"storage": quota.ToBaseUnits(q.StorageGB)},
	}, nil
}

func (q *Quota) IgnoredFieldPaths() []resource.FieldPath {
	return quotaIgnoredFields
}

func (q *Quota) CreateRequest(context.Context, transport.Client, resource.Object) (transport.Request, error) {
	return transport.Request{}, reconciler.Unsupported(q.Kind(), "create")
}

func (q *Quota) UpdateRequest(existing resource.Object, desired resource.Object) (transport.Request, error) {
	quotaID, err := objectID(existing, "id")
	if err != nil {
		return transport.Request{}, err
	}
	return transport.Request{
		Method: http.MethodPut,
		Path:   "/quotas/" + strconv.FormatInt(quotaID, 10),
		Body:   desired,
		Expect: []int{http.StatusOK},
	}, nil
}

func (q *Quota) DeleteRequest(resource.Object) (transport.Request, error) {
	return transport.Request{}, reconciler.Unsupported(q.Kind(), "delete")
}
