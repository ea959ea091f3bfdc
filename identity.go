package pubsub

import "fmt"

// Topic identifies a topic within a project.
type Topic struct {
	Project string
	ID      string
}

func NewTopic(project, id string) Topic {
	return Topic{Project: project, ID: id}
}

// FullName returns the name the service expects in requests,
// "projects/<project>/topics/<id>".
func (t Topic) FullName() string {
	return fmt.Sprintf("projects/%s/topics/%s", t.Project, t.ID)
}

func (t Topic) String() string { return t.FullName() }

// Subscription identifies a subscription within a project.
type Subscription struct {
	Project string
	ID      string
}

func NewSubscription(project, id string) Subscription {
	return Subscription{Project: project, ID: id}
}

// FullName returns "projects/<project>/subscriptions/<id>".
func (s Subscription) FullName() string {
	return fmt.Sprintf("projects/%s/subscriptions/%s", s.Project, s.ID)
}

func (s Subscription) String() string { return s.FullName() }
