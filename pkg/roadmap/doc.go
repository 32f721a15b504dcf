// Package roadmap provides type-safe Go definitions and the Redis schema for
// roadmapper.
//
// # Overview
//
// A Roadmap is the root aggregate: settings, an ordered set of lanes (tracks)
// holding timeline items, and a set of resources. The aggregate is the single
// unit of persistence and synchronization. Clients never patch parts of it;
// they read the whole document, mutate it locally and write the whole
// document back. UpdatedAt orders concurrent versions (last writer wins).
//
// Sprints are derived from RoadmapSettings and never stored.
//
// # Redis Schema
//
// Roadmaps:     roadmap_data:{project_id}   (JSON string)
// Users:        auth:user:{username}        (JSON string)
// Members:      project:{project_id}:users  (set of usernames)
// Admin:        admin:credentials           (JSON string)
// Legacy:       roadmap_data_v3             (pre-project roadmap, migrated by Setup)
//
// Pub/Sub channel: roadmap:{project_id}:events carries every saved document.
//
// # Usage Example
//
//	client, err := roadmap.NewClientFromURL("redis://localhost:6379")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	r, err := client.GetRoadmap(ctx, "vision-2026")
//	if roadmap.IsNotFound(err) {
//		r = roadmap.NewDefault(time.Now())
//	}
//
//	r.Title = "Vision 2026 Roadmap"
//	if err := client.SaveRoadmap(ctx, "vision-2026", r); err != nil {
//		log.Fatal(err)
//	}
package roadmap
