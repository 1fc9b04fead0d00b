package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/annel0/voxel-planets/internal/config"
	"github.com/annel0/voxel-planets/internal/economy"
	"github.com/annel0/voxel-planets/internal/game"
	"github.com/annel0/voxel-planets/internal/placement"
	"github.com/annel0/voxel-planets/internal/planet"
	"github.com/annel0/voxel-planets/internal/world"
	"github.com/joho/godotenv"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML config path (default: VOXEL_CONFIG)")
		command    = flag.String("cmd", "list", "Command: list, show, create, next, prev, delete, rename, sell, export")
		name       = flag.String("name", "", "Planet name for create/rename")
		resource   = flag.String("resource", "", "Resource to sell (empty = everything)")
		out        = flag.String("out", "planet.obj", "Output file for export")
	)
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Config: %v", err)
	}
	opts, err := game.OptionsFromConfig(cfg)
	if err != nil {
		log.Fatalf("❌ Config: %v", err)
	}
	store, err := game.OpenStore(cfg.Save)
	if err != nil {
		log.Fatalf("❌ Save storage: %v", err)
	}
	defer store.Close()

	session := game.NewSession(opts, game.Deps{
		Store:           store,
		RegistryOptions: []planet.RegistryOption{planet.WithRegistryFile(cfg.Save.RegistryFile)},
	})
	session.Start()

	cmdErr := runCommand(session, *command, *name, *resource, *out)
	if err := session.Shutdown(); err != nil {
		log.Printf("⚠️ Save on exit: %v", err)
	}
	if cmdErr != nil {
		store.Close()
		log.Fatalf("❌ %v", cmdErr)
	}
}

func runCommand(s *game.Session, command, name, resource, out string) error {
	switch command {
	case "list":
		printPlanets(s)
	case "show":
		printCurrent(s)
	case "create":
		if _, err := s.CreatePlanet(name); err != nil {
			return err
		}
		printCurrent(s)
	case "next":
		if _, err := s.NextPlanet(); err != nil {
			return err
		}
		printCurrent(s)
	case "prev":
		if _, err := s.PreviousPlanet(); err != nil {
			return err
		}
		printCurrent(s)
	case "delete":
		if _, err := s.DeletePlanet(); err != nil {
			return err
		}
		printPlanets(s)
	case "rename":
		if !s.Rename(name) {
			return fmt.Errorf("rename needs a non-empty -name")
		}
		printCurrent(s)
	case "sell":
		return sell(s, resource)
	case "export":
		return export(s, out)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
	return nil
}

func printPlanets(s *game.Session) {
	current := s.Planets().CurrentIndex()
	for i, p := range s.Planets().Planets() {
		marker := " "
		if i == current {
			marker = "*"
		}
		fmt.Printf("%s %2d  %-20s seed=%-11d id=%s created=%s\n",
			marker, i, p.Name, p.Seed, p.ID, p.CreatedAt().Format("2006-01-02 15:04"))
	}
}

func printCurrent(s *game.Session) {
	rec, ok := s.Planets().CurrentPlanet()
	if !ok {
		fmt.Println("no planet selected")
		return
	}
	fmt.Printf("🪐 %s (seed %d, id %s)\n", rec.Name, rec.Seed, rec.ID)

	balances := economy.SnapshotOf(s.Ledger())
	parts := make([]string, 0, len(balances))
	for _, kind := range economy.AllResources() {
		parts = append(parts, fmt.Sprintf("%s=%s", kind, economy.FormatIdle(balances[kind])))
	}
	fmt.Println("   " + strings.Join(parts, " "))

	objects := s.Objects()
	fmt.Printf("   ores=%d spawners=%d totems=%d\n",
		objects.Count(placement.KindOre), objects.Count(placement.KindSpawner), objects.Count(placement.KindTotem))
}

func sell(s *game.Session, resource string) error {
	kinds := append([]economy.ResourceKind{economy.Soil}, economy.OreKinds...)
	if resource != "" {
		kind, err := economy.ParseResourceKind(resource)
		if err != nil {
			return err
		}
		kinds = []economy.ResourceKind{kind}
	}

	var total int64
	for _, kind := range kinds {
		earned, err := s.SellAll(kind)
		if err != nil {
			return err
		}
		total += earned
	}
	fmt.Printf("💰 +%s coin\n", economy.FormatIdle(total))
	printCurrent(s)
	return nil
}

func export(s *game.Session, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := world.WriteOBJ(f, s.World().Objects()); err != nil {
		return err
	}
	fmt.Printf("📦 exported %s\n", path)
	return nil
}
