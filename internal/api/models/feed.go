package models

import (
	"github.com/outbackwarning/outbackwarning/internal/geo"
	"github.com/outbackwarning/outbackwarning/internal/hazard"
)

// District is one fire danger district and its approximate extent. Center
// is where a map centres on the district.
type District struct {
	Name   string          `json:"name"`
	Box    geo.BoundingBox `json:"box"`
	Center geo.Coordinate  `json:"center"`
}

// DistrictList is the body of GET /v1/districts.
type DistrictList struct {
	Items []District `json:"items"`
}

// DistrictRating is today's rating for one district.
type DistrictRating struct {
	District string   `json:"district"`
	Rating   string   `json:"rating"`
	Actions  []string `json:"actions,omitempty"`
}

// RatingList is the body of GET /v1/ratings.
type RatingList struct {
	Items []DistrictRating `json:"items"`
}

// FeedList is the body of GET /v1/feed.
type FeedList struct {
	Items []hazard.FeedItem `json:"items"`
	Total int               `json:"total"`
}

// ContactList is the body of GET /v1/contacts.
type ContactList struct {
	Items []hazard.Contact `json:"items"`
}
