package model

import (
	"errors"
	"fmt"
)

// ErrUnknownMission is returned when a slug is outside the fixed mission set.
var ErrUnknownMission = errors.New("unknown mission")

// MissionSlug identifies one of the fixed conservation missions.
type MissionSlug string

const (
	MissionClimateEnergy MissionSlug = "climate-energy"
	MissionOcean         MissionSlug = "ocean"
	MissionWildlife      MissionSlug = "wildlife"
	MissionFood          MissionSlug = "food"
	MissionFreshwater    MissionSlug = "freshwater"
	MissionForest        MissionSlug = "forest"
)

// ValidMissions contains all valid mission slugs.
var ValidMissions = map[MissionSlug]bool{
	MissionClimateEnergy: true,
	MissionOcean:         true,
	MissionWildlife:      true,
	MissionFood:          true,
	MissionFreshwater:    true,
	MissionForest:        true,
}

// Valid reports whether s belongs to the fixed mission set.
func (s MissionSlug) Valid() bool {
	return ValidMissions[s]
}

// ParseMissionSlug converts raw input into a MissionSlug.
func ParseMissionSlug(raw string) (MissionSlug, error) {
	slug := MissionSlug(raw)
	if !slug.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownMission, raw)
	}
	return slug, nil
}

// Mission is the catalog entry shown next to a slug.
type Mission struct {
	Slug          MissionSlug `json:"slug" example:"ocean"`
	Name          string      `json:"name" example:"해양"`
	FullName      string      `json:"fullName" example:"해양 보전"`
	ImpactMessage string      `json:"impactMessage" example:"당신의 후원으로 해양 생태계가 보호됩니다"`
	CTAMessage    string      `json:"ctaMessage" example:"바다의 내일을 함께 지켜주세요"`
}

// Missions is the catalog in display order.
var Missions = []Mission{
	{
		Slug:          MissionClimateEnergy,
		Name:          "기후·에너지",
		FullName:      "기후·에너지 보전",
		ImpactMessage: "당신의 후원으로 지구의 온도를 지킵니다",
		CTAMessage:    "기후 위기 대응에 함께해주세요",
	},
	{
		Slug:          MissionOcean,
		Name:          "해양",
		FullName:      "해양 보전",
		ImpactMessage: "당신의 후원으로 해양 생태계가 보호됩니다",
		CTAMessage:    "바다의 내일을 함께 지켜주세요",
	},
	{
		Slug:          MissionWildlife,
		Name:          "야생동물",
		FullName:      "야생동물 보전",
		ImpactMessage: "당신의 후원으로 야생동물의 서식지가 지켜집니다",
		CTAMessage:    "야생동물의 내일을 함께 만들어주세요",
	},
	{
		Slug:          MissionFood,
		Name:          "식량",
		FullName:      "식량 시스템 전환",
		ImpactMessage: "당신의 후원으로 지속가능한 식량 시스템을 만듭니다",
		CTAMessage:    "지속가능한 미래 식탁에 함께해주세요",
	},
	{
		Slug:          MissionFreshwater,
		Name:          "담수",
		FullName:      "담수 보전",
		ImpactMessage: "당신의 후원으로 맑은 물과 생명이 이어집니다",
		CTAMessage:    "강과 습지를 살리는 일에 함께해주세요",
	},
	{
		Slug:          MissionForest,
		Name:          "산림",
		FullName:      "산림 보전",
		ImpactMessage: "당신의 후원으로 숲이 다시 숨 쉽니다",
		CTAMessage:    "지구의 허파를 지키는 일에 함께해주세요",
	},
}

// MissionBySlug looks up a catalog entry.
func MissionBySlug(slug MissionSlug) (Mission, bool) {
	for _, m := range Missions {
		if m.Slug == slug {
			return m, true
		}
	}
	return Mission{}, false
}

// MissionName returns the display name for slug, falling back to the raw slug.
func MissionName(slug string) string {
	if m, ok := MissionBySlug(MissionSlug(slug)); ok {
		return m.Name
	}
	return slug
}
