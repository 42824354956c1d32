package main

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/san-kum/gravsim/internal/viz"
)

func simCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	addSimFlags(cmd)
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatal(err)
	}
	return cmd
}

func withGlobals(t *testing.T, presetName, file string) {
	t.Helper()
	oldPreset, oldFile := preset, configFile
	preset, configFile = presetName, file
	t.Cleanup(func() { preset, configFile = oldPreset, oldFile })
}

func TestLoadConfig_FileOverlaysPreset(t *testing.T) {
	g := NewWithT(t)

	path := filepath.Join(t.TempDir(), "run.yaml")
	g.Expect(os.WriteFile(path, []byte("integrator: leapfrog\n"), 0644)).To(Succeed())
	withGlobals(t, "cluster", path)

	cfg, err := loadConfig(simCommand(t, "--dt", "60"), nil)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(cfg.Scenario).To(Equal("cluster"))
	g.Expect(cfg.Evaluator).To(Equal("parallel"))
	g.Expect(cfg.Integrator).To(Equal("leapfrog"))
	g.Expect(cfg.FixedDt).To(Equal(60.0))
}

func TestLoadConfig_UniverseArgument(t *testing.T) {
	g := NewWithT(t)
	withGlobals(t, "", "")

	cfg, err := loadConfig(simCommand(t), []string{"bodies.csv"})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(cfg.Source()).To(Equal("bodies.csv"))

	cfg, err = loadConfig(simCommand(t, "--scenario", "ring"), []string{"bodies.csv"})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(cfg.Source()).To(Equal("ring"))
}

func TestLoadConfig_UnknownPreset(t *testing.T) {
	withGlobals(t, "nope", "")
	if _, err := loadConfig(simCommand(t), nil); err == nil {
		t.Fatal("expected unknown preset error")
	}
}

func TestRunLiveRejectsUnknownTheme(t *testing.T) {
	old := themeName
	themeName = "nope"
	t.Cleanup(func() { themeName = old })

	if err := runLive(simCommand(t), nil); err == nil {
		t.Fatal("expected unknown theme error")
	}
	if viz.CurrentTheme.Name == "nope" {
		t.Error("current theme changed")
	}
}
