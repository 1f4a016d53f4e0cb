package adapters

import (
	"context"
	"net/http"
	"net/url"

	"github.com/pkg/errors"

	"github.com/leadflowhq/leadflow/model"
)

// QueryStringAdapter issues a GET with the mapped lead fields as query
// parameters. Some postback-style advertiser APIs only accept this shape.
type QueryStringAdapter struct{}

func (a *QueryStringAdapter) Deliver(ctx context.Context, lead *model.Lead, advertiser *model.Advertiser) (*Result, error) {
	endpoint, err := url.Parse(advertiser.URL)
	if err != nil {
		return nil, errors.Wrap(err, "parsing advertiser url")
	}

	query := endpoint.Query()
	for name, value := range payloadFields(lead, advertiser) {
		query.Set(name, value)
	}
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "building delivery request")
	}
	applyAuth(req, advertiser)

	return execute(req)
}
