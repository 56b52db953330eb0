package repository

import (
	"context"
	"reading_eval_backend/internal/model"

	"gorm.io/gorm"
)

// DirectoryRepository 班级与在读名单，只读
type DirectoryRepository struct {
	DB *gorm.DB
}

func NewDirectoryRepository(db *gorm.DB) *DirectoryRepository {
	return &DirectoryRepository{DB: db}
}

func (r *DirectoryRepository) FindClassroom(ctx context.Context, scope model.Capability, classroomID string) (*model.Classroom, error) {
	var classroom model.Classroom
	err := r.DB.WithContext(ctx).
		Where("id = ? AND institution_id = ?", classroomID, scope.InstitutionID).
		First(&classroom).Error
	if err != nil {
		return nil, err
	}
	return &classroom, nil
}

// ActiveEnrollments 返回班级当前在读的学生，学生也必须属于同一机构
func (r *DirectoryRepository) ActiveEnrollments(ctx context.Context, scope model.Capability, classroomID string) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	err := r.DB.WithContext(ctx).
		Joins("Student").
		Where("enrollments.classroom_id = ? AND enrollments.active = ?", classroomID, true).
		Where("Student.institution_id = ?", scope.InstitutionID).
		Order("Student.full_name ASC").
		Find(&enrollments).Error
	return enrollments, err
}

func (r *DirectoryRepository) FindStudents(ctx context.Context, scope model.Capability, studentIDs []string) (map[string]model.Student, error) {
	result := make(map[string]model.Student, len(studentIDs))
	if len(studentIDs) == 0 {
		return result, nil
	}

	var students []model.Student
	err := r.DB.WithContext(ctx).
		Where("id IN ? AND institution_id = ?", studentIDs, scope.InstitutionID).
		Find(&students).Error
	if err != nil {
		return nil, err
	}
	for _, s := range students {
		result[s.ID] = s
	}
	return result, nil
}
