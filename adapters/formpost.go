package adapters

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/leadflowhq/leadflow/model"
)

// FormPostAdapter posts the mapped lead fields urlencoded, for advertisers
// whose intake expects a classic form submit.
type FormPostAdapter struct{}

func (a *FormPostAdapter) Deliver(ctx context.Context, lead *model.Lead, advertiser *model.Advertiser) (*Result, error) {
	form := url.Values{}
	for name, value := range payloadFields(lead, advertiser) {
		form.Set(name, value)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, advertiser.URL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.Wrap(err, "building delivery request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	applyAuth(req, advertiser)

	return execute(req)
}
