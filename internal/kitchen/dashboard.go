package kitchen

import (
	"context"

	"maitred/internal/models"
)

const recentLimit = 10

// Dashboard is a derived view over all requests.
type Dashboard struct {
	Total    int                          `json:"total"`
	ByStatus map[models.RequestStatus]int `json:"by_status"`
	ByType   map[models.RequestType]int   `json:"by_type"`
	Urgent   []models.KitchenRequest      `json:"urgent"`
	Recent   []models.KitchenRequest      `json:"recent"`
}

// Dashboard summarises the queue for the kitchen team.
func (t *Tracker) Dashboard(ctx context.Context) (*Dashboard, error) {
	all, err := t.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		Total: len(all),
		ByStatus: map[models.RequestStatus]int{
			models.RequestStatusPending:    0,
			models.RequestStatusInProgress: 0,
			models.RequestStatusCompleted:  0,
			models.RequestStatusCancelled:  0,
		},
		ByType: make(map[models.RequestType]int),
		Urgent: []models.KitchenRequest{},
		Recent: []models.KitchenRequest{},
	}
	for _, r := range all {
		d.ByStatus[r.Status]++
		d.ByType[r.Type]++
		if r.Urgent() {
			d.Urgent = append(d.Urgent, r)
		}
	}
	sortRequests(d.Urgent)

	recent := append([]models.KitchenRequest(nil), all...)
	sortByCreated(recent)
	if len(recent) > recentLimit {
		recent = recent[:recentLimit]
	}
	d.Recent = append(d.Recent, recent...)
	return d, nil
}
