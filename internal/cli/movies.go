package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/byte4ever/netkit"
	"github.com/byte4ever/netkit/movies"
)

func (c *CLI) nowPlayingCommand() *cobra.Command {
	var (
		page    int
		pages   int
		refresh bool
		policy  string
	)

	cmd := &cobra.Command{
		Use:   "now-playing",
		Short: "List movies now playing in theatres",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			s, err := c.openSession(ctx, policy)
			if err != nil {
				return err
			}
			defer s.close()

			prog := newProgress(loggerFromContext(ctx))

			if pages > 1 {
				if refresh {
					return errors.New("--refresh cannot be combined with --pages")
				}

				lists, pagesErr := s.repo.NowPlayingPages(ctx, page, page+pages-1)
				if pagesErr != nil {
					return pagesErr
				}

				merged := collect(lists)
				prog.done(fmt.Sprintf("Fetched %d pages", len(lists)))
				printMovies(cmd.OutOrStdout(), s.cfg, merged, pageFooter(lists[len(lists)-1]))

				return nil
			}

			list, err := s.repo.NowPlaying(ctx, page, refresh)
			if err != nil {
				return err
			}

			prog.done(fmt.Sprintf("Fetched page %d", list.Page))
			printMovies(cmd.OutOrStdout(), s.cfg, list.Results, pageFooter(list))

			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "page to fetch")
	cmd.Flags().IntVar(&pages, "pages", 1, "number of consecutive pages to fetch concurrently")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the local response cache")
	cmd.Flags().StringVar(&policy, "policy", netkit.PresetDefault, "retry policy name")

	return cmd
}

func (c *CLI) searchCommand() *cobra.Command {
	var (
		page   int
		policy string
	)

	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Search movies by title",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			s, err := c.openSession(ctx, policy)
			if err != nil {
				return err
			}
			defer s.close()

			list, err := s.repo.Search(ctx, strings.Join(args, " "), page)
			if err != nil {
				return err
			}

			if len(list.Results) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), styleMeta.Render("No results"))
				return nil
			}

			printMovies(cmd.OutOrStdout(), s.cfg, list.Results, pageFooter(list))

			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "page to fetch")
	cmd.Flags().StringVar(&policy, "policy", netkit.PresetDefault, "retry policy name")

	return cmd
}

// collect merges pages in order, dropping movies repeated across pages.
func collect(lists []movies.ListResponse) []movies.Movie {
	seen := make(map[int]struct{})

	var out []movies.Movie

	for _, l := range lists {
		for _, m := range l.Results {
			if _, dup := seen[m.ID]; dup {
				continue
			}

			seen[m.ID] = struct{}{}
			out = append(out, m)
		}
	}

	return out
}

func pageFooter(l movies.ListResponse) string {
	footer := fmt.Sprintf("page %d of %d", l.Page, l.TotalPages)
	if l.HasMorePages() {
		footer += " " + iconArrow + fmt.Sprintf(" --page %d for more", l.Page+1)
	}

	return footer
}

