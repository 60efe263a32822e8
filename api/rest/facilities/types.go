package facilities

import "codeberg.org/campusfind/server/internal/facilities"

type ListResponse struct {
	Facilities []facilities.Facility `json:"facilities"`
	Total      int                   `json:"total"`
}
