package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/d60-Lab/zingg/config"
	"github.com/d60-Lab/zingg/internal/model"
	"github.com/d60-Lab/zingg/internal/repository"
	"github.com/d60-Lab/zingg/internal/service"
	"github.com/d60-Lab/zingg/pkg/database"
	"github.com/d60-Lab/zingg/pkg/logger"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func envInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	xs := append([]time.Duration(nil), vs...)
	sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
	k := int(math.Ceil(p*float64(len(xs)))) - 1
	if k < 0 {
		k = 0
	}
	if k >= len(xs) {
		k = len(xs) - 1
	}
	return xs[k]
}

// run 用 workers 个 goroutine 执行 n 次 op，返回每次耗时
func run(n, workers int, op func(i int) error) ([]time.Duration, int) {
	if workers > n {
		workers = n
	}
	feed := make(chan int, n)
	for i := 0; i < n; i++ {
		feed <- i
	}
	close(feed)

	var (
		mu     sync.Mutex
		recs   = make([]time.Duration, 0, n)
		failed int
		wg     sync.WaitGroup
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range feed {
				st := time.Now()
				err := op(i)
				d := time.Since(st)
				mu.Lock()
				recs = append(recs, d)
				if err != nil {
					failed++
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return recs, failed
}

func main() {
	cfg := must(config.Load())
	_ = logger.Init(cfg.Log)
	db := must(database.InitDB(cfg))
	defer database.Close(db)

	users := repository.NewUserRepository(db)
	follows := repository.NewFollowRepository(db)
	relSvc := service.NewRelationshipService(users, follows, repository.NewLikeRepository(db), repository.NewBlogRepository(db))

	ctx := context.Background()
	N := envInt("N", 10000)
	CONC := envInt("CONC", 8)
	HOT := envInt("HOT", 1000)
	PAGE := envInt("PAGE", 50)

	// celeb 是大V，其余用户都去关注它
	celebName := "bench_celeb"
	celeb := model.User{ID: uuid.NewString(), Username: &celebName, Name: "celeb"}
	if err := db.Create(&celeb).Error; err != nil {
		panic(err)
	}
	seeded := make([]model.User, N)
	for i := range seeded {
		id := uuid.NewString()
		name := "b_" + id[:8]
		seeded[i] = model.User{ID: id, Username: &name, Name: name}
	}
	if err := db.CreateInBatches(&seeded, 1000).Error; err != nil {
		panic(err)
	}

	// 互不相交的 (follower, celeb) 对：每个 toggle 都应落成 on
	t0 := time.Now()
	disjoint, failed := run(N, CONC, func(i int) error {
		_, err := relSvc.ToggleFollow(ctx, seeded[i].ID, celeb.ID)
		return err
	})
	disjointDur := time.Since(t0)
	followers, _ := must2(follows.Counts(ctx, celeb.ID))

	// 同一对上的并发 toggle：只能收敛出至多一条边
	hotActor := seeded[0].ID
	t1 := time.Now()
	hot, hotFailed := run(HOT, CONC, func(int) error {
		_, err := relSvc.ToggleFollow(ctx, hotActor, celeb.ID)
		return err
	})
	hotDur := time.Since(t1)
	var edges int64
	if err := db.Model(&model.Follow{}).
		Where("follower_id = ? AND following_id = ?", hotActor, celeb.ID).
		Count(&edges).Error; err != nil {
		panic(err)
	}

	q0 := time.Now()
	_, _ = follows.ListFollowers(ctx, celeb.ID, 0, PAGE)
	listDur := time.Since(q0)

	q1 := time.Now()
	_, _ = follows.FollowerIDs(ctx, celeb.ID)
	idsDur := time.Since(q1)

	fmt.Printf("N=%d, CONC=%d, HOT=%d, PAGE=%d\n", N, CONC, HOT, PAGE)
	fmt.Printf("Disjoint toggle total: %v, per op: %v, p50: %v, p95: %v, p99: %v, failed: %d, followers: %d\n",
		disjointDur, disjointDur/time.Duration(N), pct(disjoint, 0.50), pct(disjoint, 0.95), pct(disjoint, 0.99), failed, followers)
	fmt.Printf("Hot-pair toggle total: %v, p50: %v, p99: %v, failed: %d, edges: %d\n",
		hotDur, pct(hot, 0.50), pct(hot, 0.99), hotFailed, edges)
	fmt.Printf("Query followers(%d) latency: %v\n", PAGE, listDur)
	fmt.Printf("Query follower ids latency: %v\n", idsDur)
	if edges > 1 {
		fmt.Fprintf(os.Stderr, "duplicate follow edges for hot pair: %d\n", edges)
		os.Exit(1)
	}
}

func must2[A, B any](a A, b B, err error) (A, B) {
	if err != nil {
		panic(err)
	}
	return a, b
}
