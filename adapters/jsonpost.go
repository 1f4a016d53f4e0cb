package adapters

import (
	"context"
	"net/http"

	"github.com/pkg/errors"

	"github.com/leadflowhq/leadflow/internal/request"
	"github.com/leadflowhq/leadflow/model"
)

// JSONPostAdapter posts the mapped lead fields as a JSON object to the
// advertiser's endpoint.
type JSONPostAdapter struct{}

func (a *JSONPostAdapter) Deliver(ctx context.Context, lead *model.Lead, advertiser *model.Advertiser) (*Result, error) {
	payload, err := request.ToJsonReq(payloadFields(lead, advertiser))
	if err != nil {
		return nil, errors.Wrap(err, "marshalling delivery payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, advertiser.URL, payload)
	if err != nil {
		return nil, errors.Wrap(err, "building delivery request")
	}
	req.Header.Set("Content-Type", "application/json")
	applyAuth(req, advertiser)

	return execute(req)
}
