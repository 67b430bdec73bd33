package vultrdns

// DNSRecord is a single DNS record as returned by the Vultr v2 API. A held
// copy is stale the moment the provider mutates the record; callers must not
// assume it reflects provider-side reality after an update they did not
// themselves issue.
type DNSRecord struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Name     string `json:"name"` // subdomain label; empty means the zone apex
	Data     string `json:"data"`
	Priority int    `json:"priority"`
	TTL      int    `json:"ttl"`
}

// DNSDomain is a DNS zone in the Vultr account.
type DNSDomain struct {
	Domain      string `json:"domain"`
	DateCreated string `json:"date_created"`
}

// CreateRecordParams describes a record to create. A zero Type defaults to
// "A" and a zero TTL to 300, matching the API defaults.
type CreateRecordParams struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Data     string `json:"data"`
	TTL      int    `json:"ttl"`
	Priority int    `json:"priority"`
}

// UpdateRecordParams carries a partial update. Nil fields are omitted from
// the request body and left untouched server-side.
type UpdateRecordParams struct {
	Name     *string `json:"name,omitempty"`
	Data     *string `json:"data,omitempty"`
	TTL      *int    `json:"ttl,omitempty"`
	Priority *int    `json:"priority,omitempty"`
}

// Response envelopes for the /domains endpoints.

type domainsResponse struct {
	Domains []DNSDomain `json:"domains"`
}

type recordsResponse struct {
	Records []DNSRecord `json:"records"`
}

type recordResponse struct {
	Record *DNSRecord `json:"record"`
}
