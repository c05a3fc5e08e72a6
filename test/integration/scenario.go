// Package integration runs declarative end-to-end scenarios against the
// real in-memory command/query/projector stack. Each scenario is a YAML
// fixture under fixtures/, loaded by reading every *.yaml file in a
// directory, unmarshaling it, and validating eagerly.
package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/timelinecore/microfeed/internal/command"
	"github.com/timelinecore/microfeed/internal/core/ids"
	"github.com/timelinecore/microfeed/internal/eventlog"
	"github.com/timelinecore/microfeed/internal/projector"
	"github.com/timelinecore/microfeed/internal/query"
	"github.com/timelinecore/microfeed/internal/readstore"
)

type scenario struct {
	Name               string `yaml:"name"`
	CelebrityThreshold int    `yaml:"celebrity_threshold"`
	MaxTimeline        int    `yaml:"max_timeline"`
	Steps              []step `yaml:"steps"`
}

type step struct {
	Register            *registerStep            `yaml:"register"`
	Follow              *edgeStep                `yaml:"follow"`
	Unfollow            *edgeStep                `yaml:"unfollow"`
	Publish             *publishStep             `yaml:"publish"`
	Retract             *retractStep             `yaml:"retract"`
	ExpectFeed          *expectFeedStep          `yaml:"expect_feed"`
	ExpectTimelineOmits *expectTimelineOmitsStep `yaml:"expect_timeline_omits"`
	ExpectPostAbsent    *expectPostAbsentStep    `yaml:"expect_post_absent"`
}

type registerStep struct {
	As       string `yaml:"as"`
	Username string `yaml:"username"`
}

type edgeStep struct {
	Follower string `yaml:"follower"`
	Followee string `yaml:"followee"`
}

type publishStep struct {
	As   string `yaml:"as"`
	Body string `yaml:"body"`
	Save string `yaml:"save"`
}

type retractStep struct {
	Post   string `yaml:"post"`
	Caller string `yaml:"caller"`
}

type expectedPost struct {
	Author string `yaml:"author"`
	Body   string `yaml:"body"`
}

type expectFeedStep struct {
	As    string         `yaml:"as"`
	Posts []expectedPost `yaml:"posts"`
}

type expectTimelineOmitsStep struct {
	As   string `yaml:"as"`
	Body string `yaml:"body"`
}

type expectPostAbsentStep struct {
	Post string `yaml:"post"`
}

// loadScenarios reads every *.yaml file in dir and unmarshals it into a
// scenario. Malformed fixtures fail the load rather than being skipped:
// a broken scenario fixture here is always a test bug worth surfacing,
// so loading fails loudly rather than skipping the bad file.
func loadScenarios(dir string) ([]scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading scenario dir: %w", err)
	}

	var out []scenario
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading scenario file %s: %w", path, err)
		}
		var sc scenario
		if err := yaml.Unmarshal(data, &sc); err != nil {
			return nil, fmt.Errorf("parsing scenario file %s: %w", path, err)
		}
		if sc.Name == "" {
			return nil, fmt.Errorf("scenario file %s: name must not be empty", path)
		}
		out = append(out, sc)
	}
	return out, nil
}

// runner executes a scenario's steps against a fresh in-memory stack,
// tracking aliases for users and saved post ids.
type runner struct {
	ctx      context.Context
	commands *command.Handlers
	queries  *query.Handlers
	store    readstore.Store
	users    map[string]ids.UserId
	posts    map[string]ids.PostId
}

func newRunner(celebrityThreshold, maxTimeline int) *runner {
	log := eventlog.NewInMemory()
	store := readstore.NewInMemory(celebrityThreshold, maxTimeline)
	cache := readstore.NewFeedCache(1000)
	proj := projector.New(store, cache, 8, nil)

	return &runner{
		ctx:      context.Background(),
		commands: command.New(log, store, proj),
		queries:  query.New(store, cache),
		store:    store,
		users:    make(map[string]ids.UserId),
		posts:    make(map[string]ids.PostId),
	}
}

func (r *runner) run(sc scenario) error {
	for i, st := range sc.Steps {
		if err := r.runStep(st); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return nil
}

func (r *runner) runStep(st step) error {
	switch {
	case st.Register != nil:
		return r.doRegister(st.Register)
	case st.Follow != nil:
		return r.doFollow(st.Follow)
	case st.Unfollow != nil:
		return r.doUnfollow(st.Unfollow)
	case st.Publish != nil:
		return r.doPublish(st.Publish)
	case st.Retract != nil:
		return r.doRetract(st.Retract)
	case st.ExpectFeed != nil:
		return r.doExpectFeed(st.ExpectFeed)
	case st.ExpectTimelineOmits != nil:
		return r.doExpectTimelineOmits(st.ExpectTimelineOmits)
	case st.ExpectPostAbsent != nil:
		return r.doExpectPostAbsent(st.ExpectPostAbsent)
	default:
		return fmt.Errorf("step has no recognized action")
	}
}

func (r *runner) doRegister(s *registerStep) error {
	userId, err := r.commands.RegisterUser(r.ctx, s.Username)
	if err != nil {
		return err
	}
	r.users[s.As] = userId
	return nil
}

func (r *runner) doFollow(s *edgeStep) error {
	follower, ok := r.users[s.Follower]
	if !ok {
		return fmt.Errorf("unknown user alias %q", s.Follower)
	}
	followee, ok := r.users[s.Followee]
	if !ok {
		return fmt.Errorf("unknown user alias %q", s.Followee)
	}
	_, err := r.commands.StartFollow(r.ctx, follower, followee)
	return err
}

func (r *runner) doUnfollow(s *edgeStep) error {
	follower, ok := r.users[s.Follower]
	if !ok {
		return fmt.Errorf("unknown user alias %q", s.Follower)
	}
	followee, ok := r.users[s.Followee]
	if !ok {
		return fmt.Errorf("unknown user alias %q", s.Followee)
	}
	return r.commands.EndFollow(r.ctx, follower, followee)
}

func (r *runner) doPublish(s *publishStep) error {
	authorId, ok := r.users[s.As]
	if !ok {
		return fmt.Errorf("unknown user alias %q", s.As)
	}
	postId, err := r.commands.PublishPost(r.ctx, authorId, s.Body)
	if err != nil {
		return err
	}
	if s.Save != "" {
		r.posts[s.Save] = postId
	}
	r.posts[s.As+":"+s.Body] = postId
	return nil
}

func (r *runner) doRetract(s *retractStep) error {
	postId, ok := r.posts[s.Post]
	if !ok {
		return fmt.Errorf("unknown post alias %q", s.Post)
	}
	callerId, ok := r.users[s.Caller]
	if !ok {
		return fmt.Errorf("unknown user alias %q", s.Caller)
	}
	return r.commands.RetractPost(r.ctx, postId, callerId)
}

func (r *runner) doExpectFeed(s *expectFeedStep) error {
	viewer, ok := r.users[s.As]
	if !ok {
		return fmt.Errorf("unknown user alias %q", s.As)
	}
	feed := r.queries.GetFeed(viewer)
	if len(feed) != len(s.Posts) {
		return fmt.Errorf("feed for %s: expected %d posts, got %d (%+v)", s.As, len(s.Posts), len(feed), feed)
	}
	for i, want := range s.Posts {
		got := feed[i]
		if got.AuthorUsername != want.Author || got.Body != want.Body {
			return fmt.Errorf("feed for %s at index %d: expected {%s %s}, got {%s %s}",
				s.As, i, want.Author, want.Body, got.AuthorUsername, got.Body)
		}
	}
	return nil
}

func (r *runner) doExpectTimelineOmits(s *expectTimelineOmitsStep) error {
	userId, ok := r.users[s.As]
	if !ok {
		return fmt.Errorf("unknown user alias %q", s.As)
	}
	for _, postId := range r.store.GetTimeline(userId) {
		post, exists := r.store.GetPost(postId)
		if exists && post.Body == s.Body {
			return fmt.Errorf("timeline for %s unexpectedly contains post with body %q", s.As, s.Body)
		}
	}
	return nil
}

func (r *runner) doExpectPostAbsent(s *expectPostAbsentStep) error {
	postId, ok := r.posts[s.Post]
	if !ok {
		return fmt.Errorf("unknown post alias %q", s.Post)
	}
	if _, exists := r.store.GetPost(postId); exists {
		return fmt.Errorf("post %q was expected to be absent but still exists", s.Post)
	}
	return nil
}
