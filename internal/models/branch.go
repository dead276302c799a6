package models

// Branch is a university chapter. MemberCount and AlumniCount are cached
// aggregates maintained by the counter rules, never computed on read.
type Branch struct {
	ID          int64  `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	University  string `db:"university" json:"university"`
	Province    string `db:"province" json:"province"`
	MemberCount int    `db:"member_count" json:"member_count"`
	AlumniCount int    `db:"alumni_count" json:"alumni_count"`
}

// CreateBranchInput is the body of POST /api/branches.
type CreateBranchInput struct {
	Name       string `json:"name"`
	University string `json:"university"`
	Province   string `json:"province"`
}

// UpdateBranchInput is a partial update. Counters are not writable.
type UpdateBranchInput struct {
	Name       *string `json:"name"`
	University *string `json:"university"`
	Province   *string `json:"province"`
}
