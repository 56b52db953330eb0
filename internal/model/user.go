package model

// 身份认证由外部身份提供方负责，这里只保留角色与机构范围

type UserRole string

const (
	RoleStudent UserRole = "student"
	Teacher     UserRole = "teacher"
	Tutor       UserRole = "tutor"
	Admin       UserRole = "admin"
)

// Capability 是授权中间件产出的作用域凭证，显式传入每个核心操作。
// 所有内容库与目录查询都按 InstitutionID 限定范围，不存在绕过。
type Capability struct {
	UserID        string   `json:"userId"`
	Role          UserRole `json:"role"`
	InstitutionID string   `json:"institutionId"`
}

// StudentCapability 学生通过访问码进入，作用域取自所属评测场次的机构
func StudentCapability(institutionID string) Capability {
	return Capability{Role: RoleStudent, InstitutionID: institutionID}
}

func (c Capability) Valid() bool {
	return c.Role != "" && c.InstitutionID != ""
}

func (c Capability) HasRole(roles ...UserRole) bool {
	for _, r := range roles {
		if c.Role == r {
			return true
		}
	}
	return false
}
