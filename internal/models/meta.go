package models

// MetaKind identifies one of the reference lists a job post points at.
type MetaKind string

const (
	MetaCategory     MetaKind = "categories"
	MetaType         MetaKind = "types"
	MetaLocation     MetaKind = "locations"
	MetaLocationType MetaKind = "location-types"
)

var MetaKinds = []MetaKind{MetaCategory, MetaType, MetaLocation, MetaLocationType}

func (k MetaKind) Valid() bool {
	_, ok := metaTables[k]
	return ok
}

func (k MetaKind) Table() string {
	return metaTables[k]
}

// JobColumn is the job_posts column that references this kind.
func (k MetaKind) JobColumn() string {
	return metaJobColumns[k]
}

var metaTables = map[MetaKind]string{
	MetaCategory:     "job_categories",
	MetaType:         "job_types",
	MetaLocation:     "job_locations",
	MetaLocationType: "job_location_types",
}

var metaJobColumns = map[MetaKind]string{
	MetaCategory:     "category_id",
	MetaType:         "type_id",
	MetaLocation:     "location_id",
	MetaLocationType: "location_type_id",
}

// MetaItem is the shared shape of every reference row.
type MetaItem struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:100;not null;uniqueIndex" json:"name"`
}

type JobCategory MetaItem

func (JobCategory) TableName() string { return "job_categories" }

type JobType MetaItem

func (JobType) TableName() string { return "job_types" }

type JobLocation MetaItem

func (JobLocation) TableName() string { return "job_locations" }

type JobLocationType MetaItem

func (JobLocationType) TableName() string { return "job_location_types" }
