package db

import "github.com/jonathan/career-navigator/internal/types"

func testProfile() types.Profile {
	return types.Profile{
		ResumeText: types.StringPtr("resume"),
		SkillGaps:  []string{"GraphQL"},
		SkillCategories: []types.SkillCategory{
			{Name: "Backend", Records: []types.SkillRecord{{Name: "GraphQL", Status: types.SkillMissing}}},
		},
	}
}
