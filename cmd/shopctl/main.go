// Command shopctl drives the storefront client core from a terminal: it
// signs in, browses the catalog, edits the cart, places orders and shows
// the order history.
//
//	shopctl -email a@b.c -password secret cart
//	shopctl -email a@b.c -password secret add <product-id>
//	shopctl products [search term]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"storefront-core/auth"
	"storefront-core/config"
	"storefront-core/logger"
	"storefront-core/models"
	"storefront-core/repository"
	"storefront-core/rest"
	"storefront-core/session"
	"storefront-core/viewstate"

	"github.com/google/uuid"
)

const usage = `usage: shopctl [flags] <command> [args]

commands:
  products [term]           list or search products
  bestsellers               list best sellers
  categories                list categories
  cart                      show the cart
  add <product-id>          add one unit of a product
  inc|dec <line-id>         change a line by one unit
  remove <line-id>          remove a line
  clear                     empty the cart
  checkout [phone] [address...]
                            place an order; missing details come from the profile
  history                   show past orders grouped by day
  favourites                list favourite products
  fav <product-id>          toggle a favourite
  signup                    create an account (needs -email, -password)
  otp                       email a sign-in code (needs -email)
  verify <code> [kind]      redeem a code; kind is email, signup or recovery
  reset                     email a password recovery code (needs -email)
`

type app struct {
	log      *slog.Logger
	sessions *session.Holder
	auth     *auth.Client
	products *repository.ProductRepository
	category *repository.CategoryRepository
	cart     *viewstate.Cart
	checkout *viewstate.Checkout
	profiles *repository.ProfileRepository
	favs     *viewstate.Favourites
	history  *viewstate.History
	delivery int64
	email    string
	password string
}

func main() {
	email := flag.String("email", os.Getenv("SHOP_EMAIL"), "account email")
	password := flag.String("password", os.Getenv("SHOP_PASSWORD"), "account password")
	delivery := flag.Int64("delivery", 0, "delivery cost added at checkout")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	if err := config.LoadEnv(); err != nil {
		fmt.Fprintln(os.Stderr, "Error loading .env file:", err)
		os.Exit(1)
	}
	if err := config.ValidateClientEnv(); err != nil {
		fmt.Fprintln(os.Stderr, "Environment validation failed:", err)
		os.Exit(1)
	}
	cfg := config.LoadClient()

	log := logger.New(logger.Options{
		Service: "shopctl",
		Env:     cfg.AppEnv,
		Level:   cfg.LogLevel,
		Output:  os.Stderr,
	})

	a, err := newApp(cfg, log)
	if err != nil {
		log.Error("client setup failed", "err", err)
		os.Exit(1)
	}
	a.delivery = *delivery
	a.email = *email
	a.password = *password

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.run(ctx, flag.Arg(0), flag.Args()[1:]); err != nil {
		if msg, ok := auth.UserMessage(err); ok {
			fmt.Fprintln(os.Stderr, msg)
		} else {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

func newApp(cfg config.ClientConfig, log *slog.Logger) (*app, error) {
	sessions := session.NewHolder()
	rc, err := rest.New(rest.Config{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Timeout: cfg.Timeout,
	}, sessions, log)
	if err != nil {
		return nil, err
	}

	products := repository.NewProductRepository(rc)
	cartRepo := repository.NewCartRepository(rc, sessions, products)
	favRepo := repository.NewFavoriteRepository(rc, products)
	orders := repository.NewOrderRepository(rc, sessions, cfg.HistoryConcurrency, log)

	cart := viewstate.NewCart(cartRepo, log)
	return &app{
		log:      log,
		sessions: sessions,
		auth:     auth.New(rc, sessions),
		products: products,
		category: repository.NewCategoryRepository(rc),
		cart:     cart,
		checkout: viewstate.NewCheckout(cart, orders, log),
		profiles: repository.NewProfileRepository(rc, sessions),
		favs:     viewstate.NewFavourites(favRepo, sessions, log),
		history:  viewstate.NewHistory(orders, time.Local, log),
	}, nil
}

func (a *app) signIn(ctx context.Context) error {
	if a.email == "" || a.password == "" {
		return errors.New("this command needs -email and -password")
	}
	_, err := a.auth.SignInWithPassword(ctx, a.email, a.password)
	return err
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "products":
		list, err := a.products.Search(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		return a.printProducts(ctx, list)
	case "bestsellers":
		list, err := a.products.BestSellers(ctx)
		if err != nil {
			return err
		}
		return a.printProducts(ctx, list)
	case "categories":
		cats, err := a.category.List(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for _, c := range cats {
			fmt.Fprintf(w, "%s\t%s\n", c.ID, c.Name)
		}
		return w.Flush()

	case "signup":
		user, err := a.auth.SignUp(ctx, a.email, a.password)
		if err != nil {
			return err
		}
		fmt.Printf("Account %s created. Check %s for the confirmation code.\n", user.ID, user.Email)
		return nil
	case "otp":
		return a.auth.SendOTP(ctx, a.email)
	case "reset":
		return a.auth.ResetPasswordForEmail(ctx, a.email)
	case "verify":
		if len(args) < 1 {
			return errors.New("verify needs a code")
		}
		kind := auth.OTPEmail
		if len(args) > 1 {
			kind = auth.OTPType(args[1])
		}
		s, err := a.auth.VerifyOTP(ctx, a.email, args[0], kind)
		if err != nil {
			return err
		}
		fmt.Printf("Signed in as %s until %s\n", s.Email, s.ExpiresAt.Local().Format(time.RFC1123))
		return nil
	}

	if err := a.signIn(ctx); err != nil {
		return err
	}
	defer a.auth.SignOut(context.WithoutCancel(ctx))

	switch cmd {
	case "cart":
		if err := a.cart.Load(ctx); err != nil {
			return err
		}
		return a.printCart()
	case "add", "inc", "dec", "remove", "fav":
		if len(args) != 1 {
			return fmt.Errorf("%s needs exactly one id", cmd)
		}
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid id %q: %w", args[0], err)
		}
		return a.edit(ctx, cmd, id)
	case "clear":
		if err := a.cart.Load(ctx); err != nil {
			return err
		}
		return a.cart.Clear(ctx)
	case "checkout":
		contact, err := a.contact(ctx, args)
		if err != nil {
			return err
		}
		if err := a.cart.Load(ctx); err != nil {
			return err
		}
		order, err := a.checkout.Place(ctx, contact, nil, a.delivery)
		var partial *repository.PartialOrderError
		if errors.As(err, &partial) {
			fmt.Printf("Order %d was created but its items could not be saved; the cart was kept.\n", partial.Order.ID)
		}
		if err != nil {
			return err
		}
		fmt.Printf("Order %d placed, total %s\n", order.ID, order.Total().StringFixed(2))
		return nil
	case "history":
		if err := a.history.Load(ctx); err != nil {
			return err
		}
		for _, b := range a.history.Snapshot().Buckets {
			fmt.Println(b.Label)
			for _, e := range b.Entries {
				fmt.Printf("  #%d  %-12s %s\n", e.Order.ID, e.TimeLabel, e.Total.StringFixed(2))
			}
		}
		return nil
	case "favourites":
		list, err := a.favs.Products(ctx)
		if err != nil {
			return err
		}
		return a.printProducts(ctx, list)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// contact fills the checkout contact from args, falling back to the profile.
func (a *app) contact(ctx context.Context, args []string) (viewstate.Contact, error) {
	c := viewstate.Contact{Email: a.email}
	if p, err := a.profiles.Get(ctx); err == nil {
		c.Phone, c.Address = p.Phone, p.Address
	} else if !errors.Is(err, repository.ErrNotFound) {
		a.log.Warn("profile lookup failed", "err", err)
	}
	if len(args) > 0 {
		c.Phone = args[0]
	}
	if len(args) > 1 {
		c.Address = strings.Join(args[1:], " ")
	}
	if c.Phone == "" || c.Address == "" {
		return c, errors.New("checkout needs a phone and an address")
	}
	return c, nil
}

func (a *app) edit(ctx context.Context, cmd string, id uuid.UUID) error {
	switch cmd {
	case "add":
		return a.cart.AddProduct(ctx, id)
	case "fav":
		if err := a.favs.Load(ctx); err != nil {
			return err
		}
		on, err := a.favs.Toggle(ctx, id)
		if err != nil {
			return err
		}
		fmt.Printf("favourite: %v\n", on)
		return nil
	}

	if err := a.cart.Load(ctx); err != nil {
		return err
	}
	var err error
	switch cmd {
	case "inc":
		err = a.cart.Increment(ctx, id)
	case "dec":
		err = a.cart.Decrement(ctx, id)
	case "remove":
		err = a.cart.Remove(ctx, id)
	}
	if err != nil {
		return err
	}
	return a.printCart()
}

func (a *app) printCart() error {
	state := a.cart.Snapshot()
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, it := range state.Items {
		fmt.Fprintf(w, "%s\t%s\tx%d\t%s\n", it.ID, it.Product.Name, it.Quantity, it.LineTotal().StringFixed(2))
	}
	fmt.Fprintf(w, "\tsubtotal\t\t%s\n", a.cart.Subtotal().StringFixed(2))
	fmt.Fprintf(w, "\ttotal\t\t%s\n", a.cart.Total(a.delivery).StringFixed(2))
	return w.Flush()
}

// printProducts annotates favourites and cart membership when signed in.
func (a *app) printProducts(ctx context.Context, list []models.Product) error {
	if _, ok := a.sessions.Current(); ok {
		if err := a.favs.Load(ctx); err == nil {
			if err := a.cart.Load(ctx); err == nil {
				list = viewstate.Annotate(list, a.favs.IDs(), a.cart.Snapshot().Items)
			}
		}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, p := range list {
		marks := ""
		if p.IsFavorite {
			marks += "*"
		}
		if p.IsInCart {
			marks += "+"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Price.StringFixed(2), marks)
	}
	return w.Flush()
}
