package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/onichmath/Tarpaulin/internal/apperr"
	"github.com/onichmath/Tarpaulin/internal/model"
)

type MongoStore struct {
	db *mongo.Database
}

// Connect dials the document store and verifies the connection.
func Connect(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(dialCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(dialCtx, nil); err != nil {
		return nil, err
	}
	return &MongoStore{db: client.Database(dbName)}, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.db.Client().Disconnect(ctx)
}

// EnsureIndexes creates the unique email index that backstops the
// duplicate-user check against concurrent creations.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(CollUsers).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (s *MongoStore) users() *mongo.Collection       { return s.db.Collection(CollUsers) }
func (s *MongoStore) courses() *mongo.Collection     { return s.db.Collection(CollCourses) }
func (s *MongoStore) assignments() *mongo.Collection { return s.db.Collection(CollAssignments) }
func (s *MongoStore) submissions() *mongo.Collection { return s.db.Collection(CollSubmissions) }

func toBSON(criteria map[string]interface{}) bson.M {
	filter := bson.M{}
	for key, val := range criteria {
		filter[key] = val
	}
	return filter
}

// Users

func (s *MongoStore) CreateUser(ctx context.Context, user model.User) error {
	if _, err := s.users().InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperr.Conflict("A user with the specified email already exists.")
		}
		return apperr.Server(err)
	}
	return nil
}

func (s *MongoStore) FindUserByID(ctx context.Context, id string) (model.User, error) {
	var user model.User
	err := s.users().FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.User{}, apperr.NotFound("User not found.")
	}
	if err != nil {
		return model.User{}, apperr.Server(err)
	}
	return user, nil
}

func (s *MongoStore) FindUserByEmail(ctx context.Context, email string) (model.User, error) {
	var user model.User
	err := s.users().FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.User{}, apperr.NotFound("User not found.")
	}
	if err != nil {
		return model.User{}, apperr.Server(err)
	}
	return user, nil
}

func (s *MongoStore) FindUserRole(ctx context.Context, id string) (string, error) {
	user, err := s.FindUserByID(ctx, id)
	if err != nil {
		return "", err
	}
	return user.Role, nil
}

func (s *MongoStore) FindUsersByIDs(ctx context.Context, ids []string) ([]model.User, error) {
	cursor, err := s.users().Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, apperr.Server(err)
	}
	var users []model.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, apperr.Server(err)
	}
	return users, nil
}

// Courses

func (s *MongoStore) CreateCourse(ctx context.Context, course model.Course) error {
	if _, err := s.courses().InsertOne(ctx, course); err != nil {
		return apperr.Server(err)
	}
	return nil
}

func (s *MongoStore) FindCourseByID(ctx context.Context, id string) (model.Course, error) {
	var course model.Course
	err := s.courses().FindOne(ctx, bson.M{"_id": id}).Decode(&course)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Course{}, apperr.NotFound("Course not found.")
	}
	if err != nil {
		return model.Course{}, apperr.Server(err)
	}
	return course, nil
}

func (s *MongoStore) FindCourses(ctx context.Context, criteria map[string]interface{}, skip, limit int) ([]model.Course, error) {
	opts := options.Find().
		SetSkip(int64(skip)).
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "subject", Value: 1}, {Key: "number", Value: 1}})
	cursor, err := s.courses().Find(ctx, toBSON(criteria), opts)
	if err != nil {
		return nil, apperr.Server(err)
	}
	var courses []model.Course
	if err := cursor.All(ctx, &courses); err != nil {
		return nil, apperr.Server(err)
	}
	return courses, nil
}

func (s *MongoStore) CountCourses(ctx context.Context, criteria map[string]interface{}) (int, error) {
	count, err := s.courses().CountDocuments(ctx, toBSON(criteria))
	if err != nil {
		return 0, apperr.Server(err)
	}
	return int(count), nil
}

func (s *MongoStore) UpdateCourse(ctx context.Context, id string, patch map[string]interface{}) error {
	result, err := s.courses().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": toBSON(patch)})
	if err != nil {
		return apperr.Server(err)
	}
	if result.MatchedCount == 0 {
		return apperr.NotFound("Course not found.")
	}
	return nil
}

func (s *MongoStore) DeleteCourse(ctx context.Context, id string) error {
	result, err := s.courses().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return apperr.Server(err)
	}
	if result.DeletedCount == 0 {
		return apperr.NotFound("Course not found.")
	}

	// Clean up references. Submissions go with their assignments.
	if _, err := s.users().UpdateMany(ctx, bson.M{"courses": id}, bson.M{"$pull": bson.M{"courses": id}}); err != nil {
		return apperr.Server(err)
	}
	assignmentIDs, err := s.FindAssignmentIDsByCourse(ctx, id)
	if err != nil {
		return err
	}
	if len(assignmentIDs) > 0 {
		if _, err := s.submissions().DeleteMany(ctx, bson.M{"assignmentId": bson.M{"$in": assignmentIDs}}); err != nil {
			return apperr.Server(err)
		}
		if _, err := s.assignments().DeleteMany(ctx, bson.M{"courseId": id}); err != nil {
			return apperr.Server(err)
		}
	}
	return nil
}

func (s *MongoStore) FindCourseInstructorID(ctx context.Context, courseID string) (string, error) {
	course, err := s.FindCourseByID(ctx, courseID)
	if err != nil {
		return "", err
	}
	return course.InstructorID, nil
}

func (s *MongoStore) CourseHasStudent(ctx context.Context, courseID, userID string) (bool, error) {
	err := s.courses().FindOne(ctx, bson.M{"_id": courseID, "students": userID}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, apperr.Server(err)
	}
	return true, nil
}

// UpdateEnrollment applies the add/remove sets to the course's student
// list and each student's course list inside one session transaction, so
// the two collections cannot end up inconsistent on a partial failure.
func (s *MongoStore) UpdateEnrollment(ctx context.Context, courseID string, add, remove []string) error {
	session, err := s.db.Client().StartSession()
	if err != nil {
		return apperr.Server(err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if len(add) > 0 {
			if _, err := s.courses().UpdateOne(sc, bson.M{"_id": courseID},
				bson.M{"$addToSet": bson.M{"students": bson.M{"$each": add}}}); err != nil {
				return nil, err
			}
			if _, err := s.users().UpdateMany(sc, bson.M{"_id": bson.M{"$in": add}},
				bson.M{"$addToSet": bson.M{"courses": courseID}}); err != nil {
				return nil, err
			}
		}
		if len(remove) > 0 {
			if _, err := s.courses().UpdateOne(sc, bson.M{"_id": courseID},
				bson.M{"$pull": bson.M{"students": bson.M{"$in": remove}}}); err != nil {
				return nil, err
			}
			if _, err := s.users().UpdateMany(sc, bson.M{"_id": bson.M{"$in": remove}},
				bson.M{"$pull": bson.M{"courses": courseID}}); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return apperr.Server(err)
	}
	return nil
}

func (s *MongoStore) FindCourseIDsByInstructor(ctx context.Context, instructorID string) ([]string, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cursor, err := s.courses().Find(ctx, bson.M{"instructorId": instructorID}, opts)
	if err != nil {
		return nil, apperr.Server(err)
	}
	var docs []struct {
		ID string `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, apperr.Server(err)
	}
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.ID)
	}
	return ids, nil
}

// Assignments

func (s *MongoStore) CreateAssignment(ctx context.Context, assignment model.Assignment) error {
	if _, err := s.assignments().InsertOne(ctx, assignment); err != nil {
		return apperr.Server(err)
	}
	return nil
}

func (s *MongoStore) FindAssignmentByID(ctx context.Context, id string) (model.Assignment, error) {
	var assignment model.Assignment
	err := s.assignments().FindOne(ctx, bson.M{"_id": id}).Decode(&assignment)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Assignment{}, apperr.NotFound("Assignment not found.")
	}
	if err != nil {
		return model.Assignment{}, apperr.Server(err)
	}
	return assignment, nil
}

func (s *MongoStore) FindAssignmentIDsByCourse(ctx context.Context, courseID string) ([]string, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cursor, err := s.assignments().Find(ctx, bson.M{"courseId": courseID}, opts)
	if err != nil {
		return nil, apperr.Server(err)
	}
	var docs []struct {
		ID string `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, apperr.Server(err)
	}
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.ID)
	}
	return ids, nil
}

func (s *MongoStore) UpdateAssignment(ctx context.Context, id string, patch map[string]interface{}) error {
	result, err := s.assignments().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": toBSON(patch)})
	if err != nil {
		return apperr.Server(err)
	}
	if result.MatchedCount == 0 {
		return apperr.NotFound("Assignment not found.")
	}
	return nil
}

func (s *MongoStore) DeleteAssignment(ctx context.Context, id string) error {
	result, err := s.assignments().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return apperr.Server(err)
	}
	if result.DeletedCount == 0 {
		return apperr.NotFound("Assignment not found.")
	}
	if _, err := s.submissions().DeleteMany(ctx, bson.M{"assignmentId": id}); err != nil {
		return apperr.Server(err)
	}
	return nil
}

// Submissions

func (s *MongoStore) CreateSubmission(ctx context.Context, submission model.Submission) error {
	if _, err := s.submissions().InsertOne(ctx, submission); err != nil {
		return apperr.Server(err)
	}
	return nil
}

func (s *MongoStore) FindSubmissions(ctx context.Context, criteria map[string]interface{}, skip, limit int) ([]model.Submission, error) {
	opts := options.Find().
		SetSkip(int64(skip)).
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "timestamp", Value: 1}})
	cursor, err := s.submissions().Find(ctx, toBSON(criteria), opts)
	if err != nil {
		return nil, apperr.Server(err)
	}
	var submissions []model.Submission
	if err := cursor.All(ctx, &submissions); err != nil {
		return nil, apperr.Server(err)
	}
	return submissions, nil
}

func (s *MongoStore) CountSubmissions(ctx context.Context, criteria map[string]interface{}) (int, error) {
	count, err := s.submissions().CountDocuments(ctx, toBSON(criteria))
	if err != nil {
		return 0, apperr.Server(err)
	}
	return int(count), nil
}

// ExistsMatching reports whether any record in the collection matches
// all given field values.
func (s *MongoStore) ExistsMatching(ctx context.Context, collection string, criteria map[string]interface{}) (bool, error) {
	err := s.db.Collection(collection).FindOne(ctx, toBSON(criteria)).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
