package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/RubachokBoss/faculty-evaluation/internal/models"
	"github.com/RubachokBoss/faculty-evaluation/internal/repository"
)

// memStore is an in-memory stand-in for the database. Every fake repository
// shares one store so cross-table behaviour matches the SQL implementation.
type memStore struct {
	mu sync.Mutex

	forms         map[string]*models.Form
	questions     map[string][]models.Question
	formClasses   map[string]map[string]string
	faculty       map[string]*models.Faculty
	students      map[string]*models.Student
	classes       map[string]*models.Class
	relationships map[string]*models.Relationship
	assignments   map[string]*models.Assignment
	responses     map[string]map[string]*models.Response
	years         map[string]*models.AcademicYear
	teaching      map[string]*models.FacultyClass

	failUpsert      map[string]bool
	failUpdateScore bool
	scoreUpdates    int
}

func newMemStore() *memStore {
	return &memStore{
		forms:         map[string]*models.Form{},
		questions:     map[string][]models.Question{},
		formClasses:   map[string]map[string]string{},
		faculty:       map[string]*models.Faculty{},
		students:      map[string]*models.Student{},
		classes:       map[string]*models.Class{},
		relationships: map[string]*models.Relationship{},
		assignments:   map[string]*models.Assignment{},
		responses:     map[string]map[string]*models.Response{},
		years:         map[string]*models.AcademicYear{},
		teaching:      map[string]*models.FacultyClass{},
		failUpsert:    map[string]bool{},
	}
}

var errInjected = errors.New("injected failure")

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ---- forms ----

type fakeFormRepo struct{ *memStore }

func (r fakeFormRepo) CreateWithQuestions(_ context.Context, form *models.Form, questions []models.Question, classIDs []string, assignedBy string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, f := range r.forms {
		if f.FormCode == form.FormCode {
			return repository.ErrConflict
		}
	}
	for _, id := range classIDs {
		if _, ok := r.classes[id]; !ok {
			return repository.ErrReferenced
		}
	}

	cp := *form
	r.forms[form.ID] = &cp
	r.questions[form.ID] = append([]models.Question(nil), questions...)
	r.linkLocked(form.ID, classIDs, assignedBy)
	return nil
}

func (r fakeFormRepo) linkLocked(formID string, classIDs []string, assignedBy string) {
	if r.formClasses[formID] == nil {
		r.formClasses[formID] = map[string]string{}
	}
	for _, id := range classIDs {
		if _, ok := r.formClasses[formID][id]; !ok {
			r.formClasses[formID][id] = assignedBy
		}
	}
}

func (r fakeFormRepo) GetByID(_ context.Context, id string) (*models.Form, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.forms[id]
	if !ok {
		return nil, nil
	}
	cp := *f
	return &cp, nil
}

func (r fakeFormRepo) GetWithStats(_ context.Context, id string) (*models.FormWithStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.forms[id]
	if !ok {
		return nil, nil
	}
	return r.statsLocked(f), nil
}

func (r fakeFormRepo) statsLocked(f *models.Form) *models.FormWithStats {
	stats := &models.FormWithStats{
		Form:           *f,
		QuestionsCount: len(r.questions[f.ID]),
		ClassesCount:   len(r.formClasses[f.ID]),
	}
	for _, a := range r.assignments {
		if a.FormID == f.ID {
			stats.AssignmentsCount++
		}
	}
	return stats
}

func (r fakeFormRepo) List(_ context.Context, status string, limit, offset int) ([]models.FormWithStats, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var all []models.FormWithStats
	for _, id := range sortedKeys(r.forms) {
		f := r.forms[id]
		if status != "" && f.Status != status {
			continue
		}
		all = append(all, *r.statsLocked(f))
	}

	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (r fakeFormRepo) ListQuestions(_ context.Context, formID string) ([]models.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.questionsLocked(formID), nil
}

func (m *memStore) questionsLocked(formID string) []models.Question {
	qs := append([]models.Question(nil), m.questions[formID]...)
	sort.Slice(qs, func(i, j int) bool { return qs[i].DisplayOrder < qs[j].DisplayOrder })
	return qs
}

func (r fakeFormRepo) ListClasses(_ context.Context, formID string) ([]models.Class, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var classes []models.Class
	for _, id := range sortedKeys(r.formClasses[formID]) {
		classes = append(classes, *r.classes[id])
	}
	return classes, nil
}

func (r fakeFormRepo) LinkClasses(_ context.Context, formID string, classIDs []string, assignedBy string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.linkLocked(formID, classIDs, assignedBy)
	return nil
}

func (r fakeFormRepo) UpdateStatus(_ context.Context, id, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if f, ok := r.forms[id]; ok {
		f.Status = status
	}
	return nil
}

func (r fakeFormRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.assignments {
		if a.FormID == id {
			return repository.ErrReferenced
		}
	}
	delete(r.forms, id)
	delete(r.questions, id)
	delete(r.formClasses, id)
	return nil
}

// ---- directory ----

type fakeFacultyRepo struct{ *memStore }

func (r fakeFacultyRepo) Create(_ context.Context, f *models.Faculty) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.faculty {
		if existing.Email == f.Email || existing.SchoolID == f.SchoolID {
			return repository.ErrConflict
		}
	}
	cp := *f
	r.faculty[f.ID] = &cp
	return nil
}

func (r fakeFacultyRepo) GetByID(_ context.Context, id string) (*models.Faculty, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.faculty[id]
	if !ok {
		return nil, nil
	}
	cp := *f
	return &cp, nil
}

func (r fakeFacultyRepo) List(_ context.Context, department string) ([]models.Faculty, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var list []models.Faculty
	for _, id := range sortedKeys(r.faculty) {
		f := r.faculty[id]
		if f.IsActive && (department == "" || f.Department == department) {
			list = append(list, *f)
		}
	}
	return list, nil
}

type fakeStudentRepo struct{ *memStore }

func (r fakeStudentRepo) Create(_ context.Context, s *models.Student) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.students {
		if existing.Email == s.Email || existing.SchoolID == s.SchoolID {
			return repository.ErrConflict
		}
	}
	cp := *s
	r.students[s.ID] = &cp
	return nil
}

func (r fakeStudentRepo) GetByID(_ context.Context, id string) (*models.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.students[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r fakeStudentRepo) GetByIDs(_ context.Context, ids []string) ([]models.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Student
	for _, id := range ids {
		if s, ok := r.students[id]; ok {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r fakeStudentRepo) ListActiveInClasses(_ context.Context, classIDs []string) ([]models.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	wanted := map[string]bool{}
	for _, id := range classIDs {
		wanted[id] = true
	}

	var out []models.Student
	for _, id := range sortedKeys(r.students) {
		s := r.students[id]
		if s.IsActive && s.ClassID != nil && wanted[*s.ClassID] {
			out = append(out, *s)
		}
	}
	return out, nil
}

type fakeClassRepo struct{ *memStore }

func (r fakeClassRepo) Create(_ context.Context, c *models.Class) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *c
	r.classes[c.ID] = &cp
	return nil
}

func (r fakeClassRepo) GetByID(_ context.Context, id string) (*models.Class, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.classes[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r fakeClassRepo) GetByIDs(_ context.Context, ids []string) ([]models.Class, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Class
	for _, id := range ids {
		if c, ok := r.classes[id]; ok && c.IsActive {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *memStore) activeStudentsLocked(classID string) int {
	n := 0
	for _, st := range m.students {
		if st.IsActive && st.ClassID != nil && *st.ClassID == classID {
			n++
		}
	}
	return n
}

func (r fakeClassRepo) Deactivate(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.classes[id]
	if !ok || !c.IsActive || r.activeStudentsLocked(id) > 0 {
		return false, nil
	}
	c.IsActive = false
	return true, nil
}

func (r fakeClassRepo) LinkFaculty(_ context.Context, link *models.FacultyClass) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.teaching {
		if existing.FacultyID == link.FacultyID && existing.ClassID == link.ClassID {
			existing.Subject = link.Subject
			link.ID = existing.ID
			link.CreatedAt = existing.CreatedAt
			return false, nil
		}
	}
	cp := *link
	r.teaching[link.ID] = &cp
	return true, nil
}

func (r fakeClassRepo) UnlinkFaculty(_ context.Context, facultyID, classID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, link := range r.teaching {
		if link.FacultyID == facultyID && link.ClassID == classID {
			delete(r.teaching, id)
			return true, nil
		}
	}
	return false, nil
}

func (r fakeClassRepo) ListByFaculty(_ context.Context, facultyID string) ([]models.TaughtClass, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.TaughtClass
	for _, id := range sortedKeys(r.teaching) {
		link := r.teaching[id]
		c, ok := r.classes[link.ClassID]
		if link.FacultyID != facultyID || !ok || !c.IsActive {
			continue
		}
		out = append(out, models.TaughtClass{
			Class:        *c,
			LinkID:       link.ID,
			Subject:      link.Subject,
			StudentCount: r.activeStudentsLocked(c.ID),
		})
	}
	return out, nil
}

type fakeRelationshipRepo struct{ *memStore }

func (r fakeRelationshipRepo) Create(_ context.Context, rel *models.Relationship) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *rel
	r.relationships[rel.ID] = &cp
	return nil
}

func (r fakeRelationshipRepo) Deactivate(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rel, ok := r.relationships[id]
	if !ok {
		return false, nil
	}
	rel.IsActive = false
	return true, nil
}

func matchesPeriod(rel *models.Relationship, yearID *string, semester *int) bool {
	if yearID != nil && rel.AcademicYearID != nil && *rel.AcademicYearID != *yearID {
		return false
	}
	if semester != nil && rel.Semester != nil && *rel.Semester != *semester {
		return false
	}
	return true
}

func (r fakeRelationshipRepo) FindActive(_ context.Context, studentID, facultyID string, yearID *string, semester *int) (*models.Relationship, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range sortedKeys(r.relationships) {
		rel := r.relationships[id]
		if rel.IsActive && rel.StudentID == studentID && rel.FacultyID == facultyID && matchesPeriod(rel, yearID, semester) {
			cp := *rel
			return &cp, nil
		}
	}
	return nil, nil
}

func (r fakeRelationshipRepo) FilterRelated(_ context.Context, facultyID string, studentIDs []string, yearID *string, semester *int) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	wanted := map[string]bool{}
	for _, id := range studentIDs {
		wanted[id] = true
	}

	seen := map[string]bool{}
	var out []string
	for _, rel := range r.relationships {
		if rel.IsActive && rel.FacultyID == facultyID && wanted[rel.StudentID] && matchesPeriod(rel, yearID, semester) && !seen[rel.StudentID] {
			seen[rel.StudentID] = true
			out = append(out, rel.StudentID)
		}
	}
	return out, nil
}

// ---- assignments ----

type fakeAssignmentRepo struct{ *memStore }

func (r fakeAssignmentRepo) Upsert(_ context.Context, a *models.Assignment) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failUpsert[a.StudentID] {
		return false, errInjected
	}

	for _, existing := range r.assignments {
		if existing.StudentID == a.StudentID && existing.FormID == a.FormID {
			if existing.FacultyID != a.FacultyID {
				return false, repository.ErrAssignedElsewhere
			}
			existing.DueDate = a.DueDate
			existing.UpdatedAt = a.UpdatedAt
			a.ID = existing.ID
			a.Status = existing.Status
			return false, nil
		}
	}

	cp := *a
	r.assignments[a.ID] = &cp
	return true, nil
}

func (r fakeAssignmentRepo) GetByID(_ context.Context, id string) (*models.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.assignments[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (m *memStore) detailsLocked(a *models.Assignment) models.AssignmentWithDetails {
	d := models.AssignmentWithDetails{Assignment: *a}
	if f, ok := m.forms[a.FormID]; ok {
		d.FormTitle = f.Title
		d.IsAnonymous = f.IsAnonymous
	}
	if f, ok := m.faculty[a.FacultyID]; ok {
		d.FacultyName = f.FullName()
		d.Department = f.Department
	}
	if s, ok := m.students[a.StudentID]; ok {
		d.StudentName = s.FullName()
		d.SchoolID = s.SchoolID
		if s.ClassID != nil {
			if c, ok := m.classes[*s.ClassID]; ok {
				d.ClassName = c.Name
			}
		}
	}
	return d
}

func (r fakeAssignmentRepo) GetWithDetails(_ context.Context, id string) (*models.AssignmentWithDetails, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.assignments[id]
	if !ok {
		return nil, nil
	}
	d := r.detailsLocked(a)
	return &d, nil
}

func (r fakeAssignmentRepo) list(match func(a *models.Assignment) bool) []models.AssignmentWithDetails {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.AssignmentWithDetails
	for _, id := range sortedKeys(r.assignments) {
		if a := r.assignments[id]; match(a) {
			out = append(out, r.detailsLocked(a))
		}
	}
	return out
}

func (r fakeAssignmentRepo) ListByStudent(_ context.Context, studentID string) ([]models.AssignmentWithDetails, error) {
	return r.list(func(a *models.Assignment) bool { return a.StudentID == studentID }), nil
}

func (r fakeAssignmentRepo) ListByForm(_ context.Context, formID string) ([]models.AssignmentWithDetails, error) {
	return r.list(func(a *models.Assignment) bool { return a.FormID == formID }), nil
}

func (r fakeAssignmentRepo) ListByFaculty(_ context.Context, facultyID string, yearID *string) ([]models.AssignmentWithDetails, error) {
	return r.list(func(a *models.Assignment) bool {
		if a.FacultyID != facultyID {
			return false
		}
		return yearID == nil || (a.AcademicYearID != nil && *a.AcademicYearID == *yearID)
	}), nil
}

func (r fakeAssignmentRepo) CountByForm(_ context.Context, formID string) (int, error) {
	return len(r.list(func(a *models.Assignment) bool { return a.FormID == formID })), nil
}

func (r fakeAssignmentRepo) MarkStarted(_ context.Context, id string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.assignments[id]
	if !ok || a.Status != models.AssignmentStatusPending.String() {
		return false, nil
	}
	a.Status = models.AssignmentStatusInProgress.String()
	a.StartedAt = &at
	return true, nil
}

func (r fakeAssignmentRepo) UpdateScore(_ context.Context, id string, score *float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failUpdateScore {
		return errInjected
	}
	if a, ok := r.assignments[id]; ok {
		a.Score = copyScore(score)
		r.scoreUpdates++
	}
	return nil
}

func copyScore(score *float64) *float64 {
	if score == nil {
		return nil
	}
	v := *score
	return &v
}

func (r fakeAssignmentRepo) ListResponses(_ context.Context, assignmentID string) ([]models.Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Response
	for _, q := range r.questionsLocked(r.assignments[assignmentID].FormID) {
		if resp, ok := r.responses[assignmentID][q.ID]; ok {
			out = append(out, *resp)
		}
	}
	return out, nil
}

func (r fakeAssignmentRepo) responsesWhere(match func(a *models.Assignment) bool) []models.ResponseWithQuestion {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.ResponseWithQuestion
	for _, id := range sortedKeys(r.assignments) {
		a := r.assignments[id]
		if match(a) {
			out = append(out, r.responsesOfLocked(a)...)
		}
	}
	return out
}

func (m *memStore) responsesOfLocked(a *models.Assignment) []models.ResponseWithQuestion {
	var out []models.ResponseWithQuestion
	for _, q := range m.questionsLocked(a.FormID) {
		if resp, ok := m.responses[a.ID][q.ID]; ok {
			out = append(out, models.ResponseWithQuestion{
				Response:     *resp,
				QuestionText: q.Text,
				QuestionType: q.Type,
				DisplayOrder: q.DisplayOrder,
			})
		}
	}
	return out
}

func (r fakeAssignmentRepo) ListResponsesByForm(_ context.Context, formID string) ([]models.ResponseWithQuestion, error) {
	return r.responsesWhere(func(a *models.Assignment) bool { return a.FormID == formID }), nil
}

func (r fakeAssignmentRepo) ListResponsesByFaculty(_ context.Context, facultyID string, yearID *string) ([]models.ResponseWithQuestion, error) {
	return r.responsesWhere(func(a *models.Assignment) bool {
		if a.FacultyID != facultyID || a.Status != models.AssignmentStatusCompleted.String() {
			return false
		}
		return yearID == nil || (a.AcademicYearID != nil && *a.AcademicYearID == *yearID)
	}), nil
}

// WithinTx holds the store lock for the whole callback, which serialises
// transactions the way the row lock does, and restores a snapshot on error.
func (r fakeAssignmentRepo) WithinTx(_ context.Context, fn func(tx repository.AssignmentTx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	assignments := map[string]models.Assignment{}
	for id, a := range r.assignments {
		assignments[id] = *a
	}
	responses := map[string]map[string]models.Response{}
	for id, byQuestion := range r.responses {
		responses[id] = map[string]models.Response{}
		for q, resp := range byQuestion {
			responses[id][q] = *resp
		}
	}

	if err := fn(fakeAssignmentTx{r.memStore}); err != nil {
		r.assignments = map[string]*models.Assignment{}
		for id, a := range assignments {
			a := a
			r.assignments[id] = &a
		}
		r.responses = map[string]map[string]*models.Response{}
		for id, byQuestion := range responses {
			r.responses[id] = map[string]*models.Response{}
			for q, resp := range byQuestion {
				resp := resp
				r.responses[id][q] = &resp
			}
		}
		return err
	}
	return nil
}

// fakeAssignmentTx runs with the store lock already held.
type fakeAssignmentTx struct{ *memStore }

func (t fakeAssignmentTx) LockForSubmit(_ context.Context, id string) (*models.Assignment, error) {
	a, ok := t.assignments[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (t fakeAssignmentTx) ListQuestions(_ context.Context, formID string) ([]models.Question, error) {
	return t.questionsLocked(formID), nil
}

func (t fakeAssignmentTx) UpsertResponse(_ context.Context, resp *models.Response) error {
	if t.responses[resp.AssignmentID] == nil {
		t.responses[resp.AssignmentID] = map[string]*models.Response{}
	}
	if existing, ok := t.responses[resp.AssignmentID][resp.QuestionID]; ok {
		existing.Value = resp.Value
		existing.SubmittedAt = resp.SubmittedAt
		return nil
	}
	cp := *resp
	t.responses[resp.AssignmentID][resp.QuestionID] = &cp
	return nil
}

func (t fakeAssignmentTx) ListResponses(_ context.Context, assignmentID string) ([]models.ResponseWithQuestion, error) {
	a, ok := t.assignments[assignmentID]
	if !ok {
		return nil, nil
	}
	return t.responsesOfLocked(a), nil
}

func (t fakeAssignmentTx) Complete(_ context.Context, id string, at time.Time, score *float64, feedback *string) error {
	a, ok := t.assignments[id]
	if !ok {
		return errInjected
	}
	a.Status = models.AssignmentStatusCompleted.String()
	a.SubmittedAt = &at
	a.CompletedAt = &at
	a.Score = copyScore(score)
	if feedback != nil {
		a.Feedback = feedback
	}
	return nil
}

// ---- academic years ----

type fakeYearRepo struct{ *memStore }

func (r fakeYearRepo) Create(_ context.Context, y *models.AcademicYear) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.years {
		if existing.YearCode == y.YearCode {
			return repository.ErrConflict
		}
	}
	cp := *y
	r.years[y.ID] = &cp
	return nil
}

func (r fakeYearRepo) GetByID(_ context.Context, id string) (*models.AcademicYear, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	y, ok := r.years[id]
	if !ok {
		return nil, nil
	}
	cp := *y
	return &cp, nil
}

func (r fakeYearRepo) GetCurrent(_ context.Context) (*models.AcademicYear, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, y := range r.years {
		if y.IsCurrent {
			cp := *y
			return &cp, nil
		}
	}
	return nil, nil
}

func (r fakeYearRepo) List(_ context.Context) ([]models.AcademicYear, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.AcademicYear
	for _, id := range sortedKeys(r.years) {
		out = append(out, *r.years[id])
	}
	return out, nil
}

func (r fakeYearRepo) SetCurrent(_ context.Context, id string, statusFor func(models.AcademicYear) models.AcademicYearStatus) (*models.AcademicYear, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	target, ok := r.years[id]
	if !ok {
		return nil, nil
	}

	for _, y := range r.years {
		y.IsCurrent = false
		if y.ID != id {
			y.Status = statusFor(*y).String()
		}
	}
	target.IsCurrent = true
	target.Status = models.AcademicYearStatusActive.String()

	cp := *target
	return &cp, nil
}

func (r fakeYearRepo) Update(_ context.Context, y *models.AcademicYear) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.years[y.ID]
	if !ok {
		return false, nil
	}
	for _, other := range r.years {
		if other.ID != y.ID && other.YearCode == y.YearCode {
			return false, repository.ErrConflict
		}
	}

	existing.YearCode = y.YearCode
	existing.YearName = y.YearName
	existing.StartDate = y.StartDate
	existing.EndDate = y.EndDate
	existing.UpdatedAt = y.UpdatedAt
	if !existing.IsCurrent {
		existing.Status = y.Status
	}
	*y = *existing
	return true, nil
}

func (r fakeYearRepo) Delete(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	y, ok := r.years[id]
	if !ok || y.IsCurrent {
		return false, nil
	}
	refers := func(yearID *string) bool { return yearID != nil && *yearID == id }
	for _, f := range r.forms {
		if refers(f.AcademicYearID) {
			return false, nil
		}
	}
	for _, a := range r.assignments {
		if refers(a.AcademicYearID) {
			return false, nil
		}
	}
	for _, rel := range r.relationships {
		if refers(rel.AcademicYearID) {
			return false, nil
		}
	}
	delete(r.years, id)
	return true, nil
}

// ---- reports ----

type fakeReportRepo struct{ *memStore }

func (r fakeReportRepo) DashboardStats(_ context.Context, today time.Time) (*models.DashboardStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := &models.DashboardStats{TotalForms: len(r.forms)}
	for _, f := range r.forms {
		if f.Status == models.FormStatusStarting.String() {
			stats.ActiveForms++
		}
		stats.AssignedClasses += len(r.formClasses[f.ID])
		stats.TotalQuestions += len(r.questions[f.ID])
	}
	for _, a := range r.assignments {
		switch a.EffectiveStatus(today) {
		case models.AssignmentStatusPending:
			stats.PendingEvaluations++
		case models.AssignmentStatusInProgress:
			stats.InProgressEvaluations++
		case models.AssignmentStatusCompleted:
			stats.CompletedEvaluations++
		case models.AssignmentStatusExpired:
			stats.ExpiredEvaluations++
		}
	}
	return stats, nil
}

func (r fakeReportRepo) DepartmentReports(_ context.Context, _ *string) ([]models.DepartmentReport, error) {
	return nil, nil
}

func (r fakeReportRepo) FacultyClassReports(_ context.Context, facultyID string, yearID *string) ([]models.ClassReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.ClassReport
	for _, id := range sortedKeys(r.teaching) {
		link := r.teaching[id]
		c, ok := r.classes[link.ClassID]
		if link.FacultyID != facultyID || !ok || !c.IsActive {
			continue
		}

		report := models.ClassReport{
			ClassID:      c.ID,
			ClassName:    c.Name,
			Subject:      link.Subject,
			StudentCount: r.activeStudentsLocked(c.ID),
		}
		evaluated := map[string]struct{}{}
		var scores []float64
		for _, aid := range sortedKeys(r.assignments) {
			a := r.assignments[aid]
			st, ok := r.students[a.StudentID]
			if !ok || st.ClassID == nil || *st.ClassID != c.ID || a.FacultyID != facultyID {
				continue
			}
			if a.Status != models.AssignmentStatusCompleted.String() {
				continue
			}
			if yearID != nil && (a.AcademicYearID == nil || *a.AcademicYearID != *yearID) {
				continue
			}
			report.CompletedEvaluations++
			evaluated[a.StudentID] = struct{}{}
			score := a.Score
			if stored := r.responsesOfLocked(a); len(stored) > 0 {
				score = ComputeScore(ratingsOf(stored))
			}
			if score != nil {
				scores = append(scores, *score)
			}
		}
		report.EvaluatedStudents = len(evaluated)
		report.AverageScore = meanOf(scores)
		out = append(out, report)
	}
	return out, nil
}

// ---- integrations ----

type fakePublisher struct {
	mu        sync.Mutex
	assigned  []models.FormAssignedEvent
	submitted []models.EvaluationSubmittedEvent
	err       error
}

func (p *fakePublisher) PublishFormAssigned(_ context.Context, e *models.FormAssignedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return p.err
	}
	p.assigned = append(p.assigned, *e)
	return nil
}

func (p *fakePublisher) PublishEvaluationSubmitted(_ context.Context, e *models.EvaluationSubmittedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return p.err
	}
	p.submitted = append(p.submitted, *e)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

type fakeStorage struct {
	objects map[string][]byte
}

func (s *fakeStorage) Upload(_ context.Context, key, _ string, data []byte) error {
	if s.objects == nil {
		s.objects = map[string][]byte{}
	}
	s.objects[key] = data
	return nil
}

func (s *fakeStorage) PresignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://storage.local/" + key + "?signed", nil
}

// ---- fixture ----

// fixedNow is a Wednesday in the middle of a school year.
var fixedNow = time.Date(2025, time.March, 12, 10, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

type fixture struct {
	store       *memStore
	publisher   *fakePublisher
	storage     *fakeStorage
	forms       FormService
	assign      AssignmentService
	submissions SubmissionService
	years       AcademicYearService
	directory   DirectoryService
	reports     ReportService
}

func newFixture() *fixture {
	store := newMemStore()
	publisher := &fakePublisher{}
	storage := &fakeStorage{}
	log := zerolog.Nop()
	clock := Clock(fixedClock)

	formRepo := fakeFormRepo{store}
	assignmentRepo := fakeAssignmentRepo{store}
	facultyRepo := fakeFacultyRepo{store}
	studentRepo := fakeStudentRepo{store}
	classRepo := fakeClassRepo{store}
	relRepo := fakeRelationshipRepo{store}
	yearRepo := fakeYearRepo{store}

	return &fixture{
		store:       store,
		publisher:   publisher,
		storage:     storage,
		forms:       NewFormService(formRepo, assignmentRepo, facultyRepo, classRepo, yearRepo, clock, log),
		assign:      NewAssignmentService(formRepo, facultyRepo, studentRepo, classRepo, relRepo, assignmentRepo, publisher, clock, log),
		submissions: NewSubmissionService(assignmentRepo, formRepo, publisher, clock, log),
		years:       NewAcademicYearService(yearRepo, clock, log),
		directory:   NewDirectoryService(studentRepo, facultyRepo, classRepo, relRepo, yearRepo, clock, log),
		reports:     NewReportService(formRepo, assignmentRepo, facultyRepo, fakeReportRepo{store}, storage, time.Hour, clock, log),
	}
}

func (f *fixture) addFaculty(id, first, last, department string) {
	f.store.faculty[id] = &models.Faculty{
		ID: id, SchoolID: "F-" + id, FirstName: first, LastName: last,
		Email: id + "@school.test", Department: department, IsActive: true,
	}
}

func (f *fixture) addClass(id, name string) {
	f.store.classes[id] = &models.Class{ID: id, Name: name, IsActive: true}
}

func (f *fixture) addStudent(id, classID string) {
	s := &models.Student{
		ID: id, SchoolID: "S-" + id, FirstName: "Student", LastName: id,
		Email: id + "@school.test", IsActive: true,
	}
	if classID != "" {
		s.ClassID = &classID
	}
	f.store.students[id] = s
}

func (f *fixture) relate(studentID, facultyID string, yearID *string, semester *int) {
	id := "rel-" + studentID + "-" + facultyID
	f.store.relationships[id] = &models.Relationship{
		ID: id, StudentID: studentID, FacultyID: facultyID,
		AcademicYearID: yearID, Semester: semester, IsActive: true,
	}
}

// addForm stores a form with questions of the given types, ordered as given.
func (f *fixture) addForm(id, status string, types ...string) {
	f.store.forms[id] = &models.Form{ID: id, FormCode: "EVAL-" + id, Title: "Form " + id, Status: status}
	for i, t := range types {
		qid := id + "-q" + string(rune('1'+i))
		f.store.questions[id] = append(f.store.questions[id], models.Question{
			ID: qid, FormID: id, Text: "Question " + qid, Type: t, Required: true, DisplayOrder: i + 1,
		})
	}
}

func (f *fixture) addAssignment(id, formID, studentID, facultyID, status string, due *time.Time) *models.Assignment {
	a := &models.Assignment{
		ID: id, FormID: formID, StudentID: studentID, FacultyID: facultyID,
		Status: status, DueDate: due, AssignedAt: fixedNow, CreatedAt: fixedNow, UpdatedAt: fixedNow,
	}
	f.store.assignments[id] = a
	return a
}

func (f *fixture) addResponse(assignmentID, questionID, value string) {
	if f.store.responses[assignmentID] == nil {
		f.store.responses[assignmentID] = map[string]*models.Response{}
	}
	f.store.responses[assignmentID][questionID] = &models.Response{
		ID: assignmentID + "-" + questionID, AssignmentID: assignmentID, QuestionID: questionID,
		Value: value, SubmittedAt: fixedNow,
	}
}

func datePtr(year int, month time.Month, day int) *time.Time {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &t
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }
