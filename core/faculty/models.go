package faculty

import "strconv"

// Faculty is a row of the faculties table; Department counts its departments.
type Faculty struct {
	ID         int    `json:"id"`
	Faculty    string `json:"faculty"`
	Department int    `json:"department"`
}

func (f Faculty) RecordID() string { return strconv.Itoa(f.ID) }
