package roadmap

import "fmt"

// Redis key pattern helpers
//
// The key layout is shared with earlier deployments of the web application,
// so the patterns are fixed rather than namespaced by an instance name.
//
// Roadmap: roadmap_data:{project_id}
// User:    auth:user:{username}
// Members: project:{project_id}:users
// Admin:   admin:credentials
// Channel: roadmap:{project_id}:events

// LegacyRoadmapKey is the single-tenant key used before per-project storage.
// Setup migrates its contents into the default project.
const LegacyRoadmapKey = "roadmap_data_v3"

// AdminCredentialsKey holds the administrator record.
const AdminCredentialsKey = "admin:credentials"

// RoadmapKey returns the Redis key for a project's roadmap aggregate.
// Pattern: roadmap_data:{project_id}
func RoadmapKey(projectID string) string {
	return fmt.Sprintf("roadmap_data:%s", projectID)
}

// UserKey returns the Redis key for a user credential record.
// Pattern: auth:user:{username}
func UserKey(username string) string {
	return fmt.Sprintf("auth:user:%s", username)
}

// ProjectUsersKey returns the Redis key for the set of a project's members.
// Pattern: project:{project_id}:users
func ProjectUsersKey(projectID string) string {
	return fmt.Sprintf("project:%s:users", projectID)
}

// RoadmapEventsChannel returns the Pub/Sub channel on which saved aggregates
// are published.
// Pattern: roadmap:{project_id}:events
func RoadmapEventsChannel(projectID string) string {
	return fmt.Sprintf("roadmap:%s:events", projectID)
}
