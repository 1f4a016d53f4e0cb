package adapters

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/leadflowhq/leadflow/config"
	"github.com/leadflowhq/leadflow/model"
)

// httpClient builds the client used for one delivery attempt. The timeout is
// mandatory: a hung advertiser endpoint must surface as a failed attempt, not
// block the batch.
func httpClient() *http.Client {
	timeout := 15 * time.Second
	if conf, err := config.Fetch(); err == nil {
		timeout = time.Duration(conf.Delivery.TimeoutSec) * time.Second
	}
	return &http.Client{Timeout: timeout}
}

func maxResponseChars() int {
	if conf, err := config.Fetch(); err == nil {
		return conf.Delivery.MaxResponseChars
	}
	return 1000
}

// execute sends the prepared request and interprets the response. Any 2xx
// status is a success; every other well-formed response is a failed Result.
// Only transport-level problems return an error.
func execute(req *http.Request) (*Result, error) {
	resp, err := httpClient().Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "delivery request failed")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errors.Wrap(err, "reading delivery response")
	}

	result := &Result{
		Success:    resp.StatusCode >= 200 && resp.StatusCode < 300,
		StatusCode: resp.StatusCode,
		Body:       truncate(string(body), maxResponseChars()),
	}
	if result.Success {
		result.ExternalLeadID = ExtractExternalID(string(body))
	}
	return result, nil
}

// truncate keeps the first n characters of the raw response for audit.
// Counting runes rather than bytes avoids cutting a multi-byte character
// in half.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// applyAuth sets the authorization header for the advertiser. The header
// name and scheme come from the advertiser's settings blob, defaulting to a
// bearer token.
func applyAuth(req *http.Request, advertiser *model.Advertiser) {
	if advertiser.APIKey == "" {
		return
	}
	header := settingString(advertiser, "api_key_header", "Authorization")
	if strings.EqualFold(header, "Authorization") {
		req.Header.Set(header, fmt.Sprintf("Bearer %s", advertiser.APIKey))
		return
	}
	req.Header.Set(header, advertiser.APIKey)
}

func settingString(advertiser *model.Advertiser, key, fallback string) string {
	if advertiser.Settings == nil {
		return fallback
	}
	if v, ok := advertiser.Settings[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// payloadFields maps lead attributes to the advertiser's field names. The
// advertiser's settings may carry a "field_map" of remote name to lead
// attribute; without one the standard names go out as-is.
func payloadFields(lead *model.Lead, advertiser *model.Advertiser) map[string]string {
	attrs := map[string]string{
		"lead_id":      lead.LeadID,
		"first_name":   lead.FirstName,
		"last_name":    lead.LastName,
		"name":         lead.FullName(),
		"email":        lead.Email,
		"phone":        lead.Phone,
		"country":      lead.Country,
		"ip_address":   lead.IPAddress,
		"offer_id":     lead.OfferID,
		"affiliate_id": lead.AffiliateID,
	}

	fieldMap, ok := advertiser.Settings["field_map"].(map[string]interface{})
	if !ok || len(fieldMap) == 0 {
		fields := map[string]string{
			"first_name": lead.FirstName,
			"last_name":  lead.LastName,
			"email":      lead.Email,
			"phone":      lead.Phone,
			"country":    lead.Country,
		}
		if lead.IPAddress != "" {
			fields["ip_address"] = lead.IPAddress
		}
		if lead.OfferID != "" {
			fields["offer_id"] = lead.OfferID
		}
		return fields
	}

	fields := make(map[string]string, len(fieldMap))
	for remote, attr := range fieldMap {
		name, ok := attr.(string)
		if !ok {
			continue
		}
		if v, ok := attrs[name]; ok {
			fields[remote] = v
			continue
		}
		// Unknown attributes fall through to the lead's custom metadata.
		if lead.MetaData != nil {
			if v, ok := lead.MetaData[name].(string); ok {
				fields[remote] = v
			}
		}
	}
	return fields
}
