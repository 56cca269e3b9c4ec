package models

// Candidate — профиль, найденный провайдером по поисковому запросу кампании.
type Candidate struct {
	ID         string `json:"id"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Headline   string `json:"headline"`
	ProfileURL string `json:"profileUrl"`
}
