package domain

// AnalyticsRow is a CleanedOrder enriched with user attributes through the
// left join on user_id. Matched is false when no user row exists for the
// order's user_id; Country is empty in that case and the row is retained.
type AnalyticsRow struct {
	CleanedOrder

	Country    string `json:"country"`
	SignupDate string `json:"signup_date"`
	Matched    bool   `json:"matched"`
}

// UnmatchedCountry is the label under which rows without a joined country
// are aggregated in reports.
const UnmatchedCountry = "(unmatched)"

// CountryLabel returns the country for aggregation, substituting
// UnmatchedCountry for rows the join could not resolve.
func (r AnalyticsRow) CountryLabel() string {
	if !r.Matched || r.Country == "" {
		return UnmatchedCountry
	}
	return r.Country
}
