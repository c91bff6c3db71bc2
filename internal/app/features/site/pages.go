package site

import (
	"context"

	"github.com/dalemusser/stratasite/internal/app/content/resolve"
	"github.com/dalemusser/stratasite/internal/app/system/htmlsanitize"
	"github.com/dalemusser/stratasite/internal/domain/models"
)

// section is one named block of a page and how to load it.
type section struct {
	name string
	load func(ctx context.Context, rv *resolve.Resolver, page string) any
}

func list[T models.Entity](name string, post ...func([]T) []T) section {
	return section{name: name, load: func(ctx context.Context, rv *resolve.Resolver, _ string) any {
		items := resolve.Resolve[T](ctx, rv)
		for _, p := range post {
			items = p(items)
		}
		return items
	}}
}

// hero picks the page's hero. Absent heroes are reported as null.
var hero = section{name: "hero", load: func(ctx context.Context, rv *resolve.Resolver, page string) any {
	for _, h := range resolve.Resolve[models.HeroSection](ctx, rv) {
		if h.Page == page {
			return &h
		}
	}
	return nil
}}

// pages lists the sections of each public page, in response order.
var pages = map[string][]section{
	"home": {
		hero,
		list[models.Stat]("stats"),
		list[models.ProgramPhase]("phases"),
		list[models.Testimonial]("testimonials"),
	},
	"curriculum": {
		hero,
		list[models.ProgramPhase]("phases"),
		list[models.CurriculumWeek]("weeks"),
	},
	"team": {
		hero,
		list[models.TeamMember]("members", prepareBios),
	},
	"qualifications": {
		hero,
		list[models.Qualification]("qualifications"),
		list[models.FAQ]("faqs", prepareAnswers),
	},
	"portfolio": {
		hero,
		list[models.PortfolioCompany]("companies"),
		list[models.Testimonial]("testimonials"),
	},
	"legal": {
		list[models.LegalDocument]("documents", summarizeLegal),
	},
}

// PageNames returns the public pages in navigation order.
func PageNames() []string {
	return []string{"home", "curriculum", "team", "qualifications", "portfolio", "legal"}
}

func prepareBios(ms []models.TeamMember) []models.TeamMember {
	for i := range ms {
		if ms[i].Bio != "" {
			ms[i].Bio = htmlsanitize.Prepare(ms[i].Bio)
		}
	}
	return ms
}

func prepareAnswers(fs []models.FAQ) []models.FAQ {
	for i := range fs {
		fs[i].Answer = htmlsanitize.Prepare(fs[i].Answer)
	}
	return fs
}

// summarizeLegal drops document bodies from the index; they are served one
// at a time.
func summarizeLegal(ds []models.LegalDocument) []models.LegalDocument {
	for i := range ds {
		ds[i].Content = ""
	}
	return ds
}
