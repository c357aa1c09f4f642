//
//  Copyright 2023 PayPal Inc.
//
//  Licensed to the Apache Software Foundation (ASF) under one or more
//  contributor license agreements.  See the NOTICE file distributed with
//  this work for additional information regarding copyright ownership.
//  The ASF licenses this file to You under the Apache License, Version 2.0
//  (the "License"); you may not use this file except in compliance with
//  the License.  You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
//  Unless required by applicable law or agreed to in writing, software
//  distributed under the License is distributed on an "AS IS" BASIS,
//  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//  See the License for the specific language governing permissions and
//  limitations under the License.
//

// Package cmd implements the sub-command framework used by the conduit
// binary.
package cmd

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"text/tabwriter"

	"github.com/golang/glog"

	"conduit/pkg/version"
)

// Exit codes returned by Run.
const (
	ExitOK = iota
	ExitExecFailed
	ExitBadUsage
)

type (
	ICommand interface {
		GetName() string
		GetDesc() string //get short description
		GetSynopsis() string
		GetDetails() string
		GetOptionDesc() string
		GetExample() string
		AddExample(cmdExample string, desc string)
		AddDetails(txt string)
		Init(name string, desc string)
		Exec(ctx context.Context) error
		Parse(args []string) error
		PrintUsage()
	}

	Command struct {
		Option
		name       string
		desc       string //short description. (one line)
		synopsis   string
		details    string
		examples   string
		optVModule string
	}

	Group struct {
		cmds []ICommand
		name string
	}

	// Registry maps command names to commands. Groups are listed in the
	// order they were registered.
	Registry struct {
		byName map[string]ICommand
		groups []*Group
		others []ICommand
	}
)

var std = NewRegistry()

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]ICommand)}
}

func (c *Command) Init(name string, desc string) {
	c.name = name
	c.desc = desc
	c.Option.Init(name, flag.ContinueOnError)
	c.StringOption(&c.optVModule, "vmodule", "", "comma-separated list of pattern=N settings for file-filtered logging")
	c.Option.Usage = c.PrintUsage
}

func (c *Command) SetSynopsis(str string) {
	c.synopsis = str
}

func (c *Command) GetName() string {
	return c.name
}

func (c *Command) GetDesc() string {
	return c.desc
}

func (c *Command) GetSynopsis() string {
	return c.synopsis
}

func (c *Command) GetDetails() string {
	return c.details
}

func (c *Command) GetExample() string {
	return c.examples
}

func (c *Command) AddExample(cmdExample string, desc string) {
	c.examples += desc + "\n\t\t" + cmdExample + "\n\n"
}

func (c *Command) AddDetails(txt string) {
	c.details += txt
}

func (c *Command) Write(w io.Writer) {
	wo := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	err := usageTemplate.Execute(wo, c)
	if err != nil {
		fmt.Fprintln(w, err)
	}
	wo.Flush()
}

func (c *Command) PrintUsage() {
	page(c.Write)
}

func (c *Command) Parse(arguments []string) (err error) {
	if err = c.Option.Parse(arguments); err == nil {
		if c.optVModule != "" {
			if f := flag.Lookup("vmodule"); f != nil {
				if e := f.Value.Set(c.optVModule); e != nil {
					glog.Warningf("invalid -vmodule %s: %s", c.optVModule, e)
				}
			}
		}
	}
	return
}

// page writes through less when it is available.
func page(write func(w io.Writer)) {
	less := exec.Command("less")
	var buf bytes.Buffer
	write(&buf)
	less.Stdin = &buf
	less.Stdout = os.Stdout
	if err := less.Run(); err != nil {
		write(os.Stdout)
	}
}

func (r *Registry) RegisterNewGroup(name string, cmds ...ICommand) *Group {
	for _, g := range r.groups {
		if g.name == name {
			glog.Warningf("group %s has been registered.", name)
			return nil
		}
	}
	grp := &Group{name: name}
	for _, c := range cmds {
		if r.add(c) {
			grp.cmds = append(grp.cmds, c)
		}
	}
	r.groups = append(r.groups, grp)
	return grp
}

func (r *Registry) Register(c ICommand) bool {
	if r.add(c) {
		r.others = append(r.others, c)
		return true
	}
	return false
}

func (r *Registry) add(c ICommand) bool {
	if _, found := r.byName[c.GetName()]; found {
		glog.Warningf("command %s has been registered.", c.GetName())
		return false
	}
	r.byName[c.GetName()] = c
	return true
}

func (r *Registry) GetCommand(name string) ICommand {
	return r.byName[name]
}

// ParseArgs finds the first registered command name in argv (argv[0] is
// the program) and returns it with the other arguments, global options
// preceding the command first.
func (r *Registry) ParseArgs(argv []string) (cmd ICommand, args []string) {
	for i := 1; i < len(argv); i++ {
		arg := argv[i]
		if cmd = r.GetCommand(arg); cmd != nil {
			args = append(args, argv[i+1:]...)
			break
		}
		args = append(args, arg)
	}
	return
}

// Run parses argv, executes the command it names under ctx and returns
// the process exit code. Without a command it writes the version or the
// usage to w.
func (r *Registry) Run(ctx context.Context, argv []string, w io.Writer) int {
	command, args := r.ParseArgs(argv)
	if command == nil {
		return r.versionOrUsage(argv, w)
	}
	if err := command.Parse(args); err != nil {
		fmt.Fprintf(w, "* command '%s' failed. %s\n", command.GetName(), err)
		return ExitBadUsage
	}
	if err := command.Exec(ctx); err != nil {
		fmt.Fprintf(w, "* command '%s' failed. %s\n", command.GetName(), err)
		return ExitExecFailed
	}
	return ExitOK
}

func (r *Registry) versionOrUsage(argv []string, w io.Writer) int {
	var option Option
	var displayVersion bool
	option.Init("", flag.ContinueOnError)
	option.SetOutput(w)
	option.BoolOption(&displayVersion, "version", false, "display version info.")
	option.Usage = func() { r.Write(w, argv) }
	var args []string
	if len(argv) > 1 {
		args = argv[1:]
	}
	if err := option.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return ExitOK
		}
		return ExitBadUsage
	}
	if displayVersion {
		version.WriteVersionInfo(w)
	} else {
		r.Write(w, argv)
	}
	return ExitOK
}

func (r *Registry) Write(w io.Writer, argv []string) {
	progName := "conduit"
	if len(argv) != 0 {
		progName = filepath.Base(argv[0])
	}
	fmt.Fprintf(w, "\nUSAGE\n  %s [-version] [[options] <command> [<args>]] \n\n", progName)
	r.WriteCommand(w)
}

func (r *Registry) WriteCommand(w io.Writer) {
	if len(r.groups)+len(r.others) == 0 {
		return
	}
	fmt.Fprintln(w, "\nCOMMAND")
	for _, g := range r.groups {
		fmt.Fprintf(w, "  %s\n", g.name)
		for _, c := range g.cmds {
			fmt.Fprintf(w, "    * %s\n      %s\n", c.GetName(), c.GetDesc())
		}
	}
	if len(r.others) != 0 {
		if len(r.groups) != 0 {
			fmt.Fprintln(w, "  others")
		}
		for _, c := range r.others {
			fmt.Fprintf(w, "    * %s\n      %s\n", c.GetName(), c.GetDesc())
		}
	}
}

func RegisterNewGroup(name string, cmds ...ICommand) *Group {
	return std.RegisterNewGroup(name, cmds...)
}

func Register(c ICommand) bool {
	return std.Register(c)
}

func GetCommand(name string) ICommand {
	return std.GetCommand(name)
}

func ParseArgs(argv []string) (ICommand, []string) {
	return std.ParseArgs(argv)
}

// Run dispatches argv against the commands registered with Register.
func Run(ctx context.Context, argv []string) int {
	return std.Run(ctx, argv, os.Stdout)
}

func WriteCommand(w io.Writer) {
	std.WriteCommand(w)
}
