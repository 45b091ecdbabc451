package model

import "time"

// Collaboration post types and states.
const (
	PostTypeTask         = "task"
	PostTypeResearch     = "research"
	PostTypeHackathon    = "hackathon"
	PostTypeVolunteering = "volunteering"

	PostStatusOpen       = "open"
	PostStatusInProgress = "in_progress"
	PostStatusClosed     = "closed"
)

// CollaborationPost is a student-created call for collaborators on a task,
// research project, hackathon team or volunteering drive.  Tags are stored
// as a comma-separated string.
type CollaborationPost struct {
	ID          uint64    `json:"id"`          // collaboration_posts.id
	CreatorID   uint64    `json:"creator_id"`  // collaboration_posts.creator_id
	PostType    string    `json:"post_type"`   // collaboration_posts.post_type
	Title       string    `json:"title"`       // collaboration_posts.title
	Description string    `json:"description"` // collaboration_posts.description
	Tags        string    `json:"tags"`        // collaboration_posts.tags
	Status      string    `json:"status"`      // collaboration_posts.status
	CreatedAt   time.Time `json:"created_at"`  // collaboration_posts.created_at
	UpdatedAt   time.Time `json:"updated_at"`  // collaboration_posts.updated_at
}
