package service

import (
	"path"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/raphaelgruber/targetdiff/internal/models"
)

func ref(relPath string) models.FileRef {
	return models.FileRef{Name: path.Base(relPath), RelPath: relPath, URL: "mem://" + relPath}
}

func TestItemKey(t *testing.T) {
	tests := []struct {
		name string
		kind models.DeclarationKind
		rel  string
		want string
	}{
		{"robot key from path", models.KindJointTarget, "RobotA/path_Z01.2_034_R01.mod", "Z01.2_034_R01"},
		{"robot key without underscore", models.KindRobTarget, "new/path_Z12.3_7R02.mod", "Z12.3_7R02"},
		{"robot key in folder name", models.KindRobTarget, "Z05.1_100_R03/path_main.mod", "Z05.1_100_R03"},
		{"no robot key", models.KindJointTarget, "RobotA/path_main.mod", ""},
		{"tool data filename", models.KindToolData, "ALL_DATA.sys", "ALL_DATA.sys"},
		{"tool data nested", models.KindToolData, "cell1/all_tools.sys", "all_tools.sys"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := models.MustProfile(tt.kind).ItemKey(ref(tt.rel))
			if got != tt.want {
				t.Errorf("ItemKey(%q) = %q, want %q", tt.rel, got, tt.want)
			}
		})
	}
}

func TestAccepts(t *testing.T) {
	tests := []struct {
		kind models.DeclarationKind
		name string
		want bool
	}{
		{models.KindJointTarget, "path_Z01.2_034_R01.mod", true},
		{models.KindJointTarget, "PATH_Z01.2_034_R01.MOD", true},
		{models.KindJointTarget, "main_Z01.2_034_R01.mod", false},
		{models.KindJointTarget, "path_Z01.2_034_R01.sys", false},
		{models.KindToolData, "ALL_DATA.sys", true},
		{models.KindToolData, "all_tools.SYS", true},
		{models.KindToolData, "user.sys", false},
		{models.KindToolData, "all_data.mod", false},
	}

	for _, tt := range tests {
		if got := models.MustProfile(tt.kind).Accepts(tt.name); got != tt.want {
			t.Errorf("%s Accepts(%q) = %v, want %v", tt.kind, tt.name, got, tt.want)
		}
	}
}

func TestPairItems(t *testing.T) {
	profile := models.MustProfile(models.KindJointTarget)
	newFiles := []models.FileRef{
		ref("new/RobotB/path_Z01.2_035_R01.mod"),
		ref("new/RobotA/path_Z01.2_034_R01.mod"),
		ref("new/RobotC/path_Z02.1_001_R01.mod"),
		ref("new/RobotA/readme.txt"),
		ref("new/RobotX/path_nokey.mod"),
	}
	oldFiles := []models.FileRef{
		ref("old/RobotA/path_Z01.2_034_R01.mod"),
		ref("old/RobotD/path_Z09.9_999_R09.mod"),
		ref("old/RobotB/path_Z01.2_035_R01.mod"),
	}

	got := PairItems(profile, newFiles, oldFiles)

	var pairs []string
	for _, p := range got.Pairs {
		pairs = append(pairs, p.Key+"="+p.New.RelPath+"|"+p.Old.RelPath)
	}
	wantPairs := []string{
		"Z01.2_035_R01=new/RobotB/path_Z01.2_035_R01.mod|old/RobotB/path_Z01.2_035_R01.mod",
		"Z01.2_034_R01=new/RobotA/path_Z01.2_034_R01.mod|old/RobotA/path_Z01.2_034_R01.mod",
	}
	if diff := cmp.Diff(wantPairs, pairs); diff != "" {
		t.Errorf("Pairs mismatch (-want +got):\n%s", diff)
	}
	if len(got.NewOnly) != 1 || got.NewOnly[0].Key != "Z02.1_001_R01" {
		t.Errorf("NewOnly = %+v, want Z02.1_001_R01", got.NewOnly)
	}
	if len(got.OldOnly) != 1 || got.OldOnly[0].Key != "Z09.9_999_R09" {
		t.Errorf("OldOnly = %+v, want Z09.9_999_R09", got.OldOnly)
	}
	if got.NewCount != 3 || got.OldCount != 3 {
		t.Errorf("counts = %d/%d, want 3/3", got.NewCount, got.OldCount)
	}
}

func TestPairItems_LastFileWins(t *testing.T) {
	profile := models.MustProfile(models.KindToolData)
	newFiles := []models.FileRef{
		ref("new/a/ALL_DATA.sys"),
		ref("new/b/all_tools.sys"),
		ref("new/c/ALL_DATA.sys"),
	}
	oldFiles := []models.FileRef{ref("old/ALL_DATA.sys")}

	got := PairItems(profile, newFiles, oldFiles)
	if len(got.Pairs) != 1 {
		t.Fatalf("len(Pairs) = %d, want 1", len(got.Pairs))
	}
	if got.Pairs[0].New.RelPath != "new/c/ALL_DATA.sys" {
		t.Errorf("paired new file = %q, want the last duplicate", got.Pairs[0].New.RelPath)
	}
	if got.NewCount != 2 {
		t.Errorf("NewCount = %d, want 2", got.NewCount)
	}
}

func TestPairItems_Empty(t *testing.T) {
	got := PairItems(models.MustProfile(models.KindRobTarget), nil, nil)
	if got.Pairs == nil || got.NewOnly == nil || got.OldOnly == nil {
		t.Error("PairItems(nil, nil) returned nil slices")
	}
	if got.NewCount != 0 || got.OldCount != 0 {
		t.Errorf("counts = %d/%d, want 0/0", got.NewCount, got.OldCount)
	}
}
