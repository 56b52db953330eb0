package model

// 学生/班级目录，由外部管理，评测核心只读取在读学生名单

type Classroom struct {
	UUIDBase
	InstitutionID string `gorm:"index;type:varchar(36);not null" json:"institutionId"`
	Name          string `gorm:"size:255;not null" json:"name"`
	Grade         string `gorm:"size:32" json:"grade"`
}

func (Classroom) TableName() string {
	return "classrooms"
}

type Student struct {
	UUIDBase
	InstitutionID string `gorm:"index;type:varchar(36);not null" json:"institutionId"`
	FullName      string `gorm:"size:255;not null" json:"fullName"`
}

func (Student) TableName() string {
	return "students"
}

type Enrollment struct {
	UUIDBase
	ClassroomID string  `gorm:"index;type:varchar(36);not null" json:"classroomId"`
	StudentID   string  `gorm:"index;type:varchar(36);not null" json:"studentId"`
	Active      bool    `gorm:"default:true" json:"active"`
	Student     Student `gorm:"foreignKey:StudentID" json:"student"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}
