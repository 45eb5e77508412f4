package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/idilsaglam/carrot/internal/model"
	"github.com/idilsaglam/carrot/internal/shop"
	"github.com/idilsaglam/carrot/internal/ui"
)

func newShopCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shop",
		Short: "Spend carrots and dress the avatar",
	}
	cmd.AddCommand(newShopWalletCommand(rt))
	cmd.AddCommand(newShopBuyCommand(rt))
	cmd.AddCommand(newShopEquipCommand(rt, true))
	cmd.AddCommand(newShopEquipCommand(rt, false))
	return cmd
}

type walletView struct {
	Profile model.Profile `json:"profile" yaml:"profile"`
	Wallet  model.Wallet  `json:"wallet" yaml:"wallet"`
}

func (rt *runtime) loadWallet(cmd *cobra.Command) error {
	if err := rt.requireAuth(); err != nil {
		return err
	}
	return rt.app.Wallet.Load(cmd.Context())
}

func (rt *runtime) walletView() walletView {
	w, _ := rt.app.Wallet.Get()
	return walletView{Profile: rt.app.Wallet.Profile(), Wallet: w}
}

func itemID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, usageError("invalid item id "+arg, "Run: carrot shop wallet")
	}
	return id, nil
}

func newShopWalletCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:     "wallet",
		Aliases: []string{"inventory"},
		Short:   "Show the carrot balance and owned items",
		Args:    args(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := rt.loadWallet(cmd); err != nil {
				return err
			}
			v := rt.walletView()
			return rt.out.Print(v, func(w io.Writer) {
				ui.Panel(w, ui.WalletLines(v.Profile, v.Wallet))
			})
		},
	}
}

func newShopBuyCommand(rt *runtime) *cobra.Command {
	var price int
	var slot, name string
	cmd := &cobra.Command{
		Use:   "buy <item-id>",
		Short: "Buy an item",
		Long: `Buy an item for its price in carrots.

The balance is checked before anything is sent, so a purchase you
cannot afford fails without a request.`,
		Args: args(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, a []string) error {
			id, err := itemID(a[0])
			if err != nil {
				return err
			}
			sl, err := model.ParseSlot(slot)
			if err != nil {
				return usageError(err.Error(), "Use one of: hat, accessory, background")
			}
			if name == "" {
				name = fmt.Sprintf("item %d", id)
			}
			if err := rt.loadWallet(cmd); err != nil {
				return err
			}
			item := model.Item{ID: id, Name: name, Price: price, Type: sl}
			if err := rt.app.Wallet.Purchase(cmd.Context(), item); err != nil {
				return err
			}
			v := rt.walletView()
			return rt.out.Done(fmt.Sprintf("bought %s for %d 🥕, %d left", name, price, v.Wallet.Balance), v)
		},
	}
	cmd.Flags().IntVar(&price, "price", 0, "price in carrots")
	cmd.Flags().StringVar(&slot, "slot", string(model.SlotHat), "hat|accessory|background")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	_ = cmd.MarkFlagRequired("price")
	return cmd
}

func newShopEquipCommand(rt *runtime, on bool) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "equip <item-id>",
		Short: "Put an owned item on the avatar",
		Long: `Put an owned item on the avatar.

When the slot is taken you are asked whether to replace the item in it;
--force replaces it without asking.`,
		Args: args(cobra.ExactArgs(1)),
	}
	if !on {
		cmd.Use = "unequip <item-id>"
		cmd.Short = "Take an item off the avatar"
		cmd.Long = ""
	}
	cmd.RunE = func(cmd *cobra.Command, a []string) error {
		id, err := itemID(a[0])
		if err != nil {
			return err
		}
		if err := rt.loadWallet(cmd); err != nil {
			return err
		}
		e, err := rt.app.Wallet.NewEquip(id, on)
		if err != nil {
			return err
		}
		st, err := e.Start(cmd.Context())
		if err != nil {
			return err
		}
		if st == shop.ConflictPending {
			if st, err = rt.resolveConflict(cmd, e, force); err != nil {
				return err
			}
		}
		item := e.Item()
		switch st {
		case shop.Cancelled:
			occ, _ := e.Occupant()
			return &ExitError{
				Code:    ExitFailure,
				Message: fmt.Sprintf("%s slot is taken by %s", item.Type, occupantName(occ)),
				Hint:    "Run again with --force to replace it",
			}
		case shop.ForcedEquip:
			return rt.out.Done(fmt.Sprintf("replaced the %s with %s", item.Type, item.Name), rt.walletView())
		}
		msg := "equipped " + item.Name
		if !on {
			msg = "unequipped " + item.Name
		}
		return rt.out.Done(msg, rt.walletView())
	}
	if on {
		cmd.Flags().BoolVarP(&force, "force", "f", false, "replace whatever is in the slot")
	}
	return cmd
}

func (rt *runtime) resolveConflict(cmd *cobra.Command, e *shop.Equip, force bool) (shop.EquipState, error) {
	if !force {
		occ, _ := e.Occupant()
		answer, _ := rt.prompt(cmd, fmt.Sprintf("%s is already in the %s slot. Replace it? [y/N] ",
			occupantName(occ), e.Item().Type))
		switch strings.ToLower(answer) {
		case "y", "yes":
		default:
			return e.Cancel(), nil
		}
	}
	return e.Force(cmd.Context())
}

func occupantName(it model.Item) string {
	if it.Name == "" {
		return "another item"
	}
	return it.Name
}
