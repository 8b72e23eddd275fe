package fetcher

import (
	"testing"

	"github.com/JustinTDCT/TuneVault/internal/models"
)

func jobTypes(jobs []plannedJob) []string {
	out := make([]string, len(jobs))
	for i, j := range jobs {
		out[i] = j.JobType
	}
	return out
}

func TestPlanEnrichment(t *testing.T) {
	tests := []struct {
		name            string
		entityType      models.EntityType
		overviewMissing bool
		fetched         bool
		hasText         bool
		hasImages       bool
		want            []string
	}{
		{
			name:            "fresh fetch with everything missing plans both",
			entityType:      models.EntityArtist,
			overviewMissing: true,
			fetched:         true,
			hasText:         true,
			hasImages:       true,
			want:            []string{models.JobFetchArtistText, models.JobFetchArtistImages},
		},
		{
			name:            "cache hit plans nothing even with overview present",
			entityType:      models.EntityArtist,
			overviewMissing: false,
			fetched:         false,
			hasText:         true,
			hasImages:       true,
			want:            nil,
		},
		{
			name:            "cache hit still chases a missing overview",
			entityType:      models.EntityArtist,
			overviewMissing: true,
			fetched:         false,
			hasText:         true,
			hasImages:       true,
			want:            []string{models.JobFetchArtistText},
		},
		{
			name:            "refetch with overview present only re-verifies images",
			entityType:      models.EntityArtist,
			overviewMissing: false,
			fetched:         true,
			hasText:         true,
			hasImages:       true,
			want:            []string{models.JobFetchArtistImages},
		},
		{
			name:            "no text provider means no text job",
			entityType:      models.EntityArtist,
			overviewMissing: true,
			fetched:         true,
			hasText:         false,
			hasImages:       true,
			want:            []string{models.JobFetchArtistImages},
		},
		{
			name:            "no image provider means no image job",
			entityType:      models.EntityArtist,
			overviewMissing: true,
			fetched:         true,
			hasText:         true,
			hasImages:       false,
			want:            []string{models.JobFetchArtistText},
		},
		{
			name:            "album entity gets album job types",
			entityType:      models.EntityAlbum,
			overviewMissing: true,
			fetched:         true,
			hasText:         true,
			hasImages:       true,
			want:            []string{models.JobFetchAlbumText, models.JobFetchAlbumImages},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := planEnrichment(tt.entityType, tt.overviewMissing, tt.fetched, tt.hasText, tt.hasImages)
			gotTypes := jobTypes(got)
			if len(gotTypes) != len(tt.want) {
				t.Fatalf("planEnrichment planned %v, want %v", gotTypes, tt.want)
			}
			for i := range tt.want {
				if gotTypes[i] != tt.want[i] {
					t.Errorf("planned job %d = %q, want %q", i, gotTypes[i], tt.want[i])
				}
			}
		})
	}
}

func TestPlanEnrichmentPriority(t *testing.T) {
	jobs := planEnrichment(models.EntityArtist, true, true, true, true)
	for _, j := range jobs {
		if j.Priority != models.PriorityBackground {
			t.Errorf("enrichment job %s priority = %d, want %d", j.JobType, j.Priority, models.PriorityBackground)
		}
	}
}
